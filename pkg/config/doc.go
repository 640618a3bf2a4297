/*
Package config resolves the options of a thumbref run.

	+----------+   +-------------+   +--------+   +-------+
	| defaults | < | config file | < |  .env  | < | flags |
	+----------+   +------+------+   +--------+   +-------+
	                      |
	          +-----------+-----------+
	          |           |           |
	       YAML         HCL         JSON

Every layer is a File whose unset fields are nil, so a later layer only
overrides what it actually sets. The config file is either given
explicitly or found in the root directory as .thumbref.yaml, .thumbref.yml,
.thumbref.hcl or .thumbref.json.

Environment variables (from the process, or from a .env file in the root):

	THUMBREF_FORMAT   target format
	THUMBREF_DRY_RUN  true/false
	THUMBREF_EXT      candidate file extension
	THUMBREF_JOBS     files rewritten at once

Example .thumbref.hcl:

	format = "webp"
	ignore = ["node_modules", "dist/**"]
	jobs   = 4
*/
package config
