package config

// DefaultConfigYAML contains the default configuration YAML content, used
// by both the CLI's `conclave init` and the global config bootstrap to
// ensure consistency between the two.
const DefaultConfigYAML = `# conclave configuration
# Values not specified here use the defaults baked into the loader.

log:
  level: info
  format: auto

storage:
  path: .conclave/conclave.db
  busy_timeout: 5s
  max_open_conns: 8

indexing:
  roots:
    - .
  excludes:
    - .git
    - .conclave
    - node_modules
    - vendor
  parallelism: 4
  max_file_size: 1048576
  watch_fs: false

retrieval:
  token_budget: 8000
  weights:
    lexical: 0.4
    vector: 0.3
    recency: 0.2
    proximity: 0.1
  boosts:
    open_file: 1.5
    recent_edit: 1.2
    same_dir_task: 1.1

agents:
  definitions: []

strategy:
  complexity_threshold: 7
  risk_threshold: 6
  critical_keywords:
    - security
    - auth
    - payment
    - migration
    - production
  parallel_cues:
    - "in parallel"
    - "at the same time"
    - "independently"

consensus:
  min_agreement_rate: 0.5
  default_panel_size: 3
  decision_timeout: 2m

workflow:
  heartbeat_interval: 15s
  consensus_timeout: 2m
  sequential_timeout: 5m
  parallel_timeout: 5m

events:
  buffer_size: 256

analytics:
  max_tokens_per_task: 50000
  max_tokens_total: 2000000
  min_agreement_rate: 0.5
  metrics_addr: ""
`
