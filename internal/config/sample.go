package config

// SampleConfig returns a documented configuration file with every option
func SampleConfig() string {
	return `# ocuprofile configuration
#
# Search order (highest priority first):
#   ./.ocuprofile.yaml
#   ~/.config/ocuprofile/config.yaml
#   /etc/ocuprofile/config.yaml
# Any value can be overridden with an OCUPROFILE_<SECTION>_<KEY> environment
# variable, for example OCUPROFILE_SERVICE_ENDPOINT. A .env file in the
# working directory is read for variables missing from the environment.
version: "1.0"

service:
  # Base URL of the clustering service. Uploads go to <endpoint>/analyze.
  endpoint: https://eye-clustering.onrender.com
  # Time allowed for one attempt, including the upload.
  timeout: 60s
  # Extra attempts after a connection failure or a 429/502/503/504 reply.
  max_retries: 2
  # First backoff delay. Each retry doubles it.
  retry_delay: 1s
  # Multipart field that carries the spreadsheet.
  upload_field: file

upload:
  allowed_extensions:
    - .xlsx
    - .xls
  # 20 MiB
  max_bytes: 20971520

output:
  # text, json, markdown or csv
  default_format: text
  # auto, always or never
  color_mode: auto
  verbose: false
  # default, dark, light or minimal
  theme: default

charts:
  width: 1024
  height: 768
  # When set, analyze writes PNG and HTML charts here.
  directory: ""
`
}

// MinimalSampleConfig returns a compact configuration with essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"

service:
  endpoint: https://eye-clustering.onrender.com
  timeout: 60s

output:
  default_format: text
`
}
