package config

// DefaultConfigYAML is written by `adplanner init`.
const DefaultConfigYAML = `# Ad planner configuration
#
# Values not specified here use built-in defaults. Every key can be
# overridden with an ADPLANNER_ environment variable, e.g.
# ADPLANNER_ORACLE_API_KEY.

log:
  level: info
  format: auto

oracle:
  # openai | gemini | offline
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
  max_attempts: 2
  rate_per_second: 2
  burst: 4

workflow:
  advance_debounce: 1s
  narrate: true

sessions:
  idle_ttl: 30m
  max: 256

catalog:
  advertisers: data/advertiser_vectors.json
  segments: data/segments.csv
  preferences: data/preferences.json
  watch: false

store:
  path: .adplanner/plans.db

export:
  dir: exports

server:
  host: 127.0.0.1
  port: 8080
  cors_origins:
    - http://localhost:3000
`
