/*
Package file loads journeys from YAML files and keeps sessions on disk.

A journey file lists steps in order. The next key of a step accepts a single
destination, a rule, or a list mixing both:

	version: 1
	steps:
	  - id: national-insurance-number
	    handler: nino
	    fields: [nationalInsuranceNumber]
	    next:
	      - fn: has_redirect_to_retry_showing
	        next: could-not-match-national-insurance
	      - field: nationalInsuranceNumber
	        value: QQ123456C
	        next: /test-callback
	      - /oauth2/callback

Rules are decoded into the typed rule variants; the registry validates the result.

The package also provides Store, a session store keeping one JSON file per session,
used for local development and by the CLI.
*/
package file
