// Package controllers contains the step handlers of the national insurance number journey.
package controllers
