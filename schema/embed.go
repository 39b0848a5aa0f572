package schema

import _ "embed"

// ConfigV1Schema contains the JSON schema for subsh configuration files.
//
//go:embed subsh.v1.json
var ConfigV1Schema []byte
