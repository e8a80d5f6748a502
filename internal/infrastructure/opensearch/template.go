// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package opensearch

const queryDevicesSource = `{
  "size": {{ .Size }},
  "track_total_hits": true,
  "query": {
    "bool": {
      "must": [
        {
          "match_all": {}
        }
        {{- if .RegionCodes }},
        {
          "terms": {
            "region_code": [{{ range $i, $code := .RegionCodes }}{{ if $i }}, {{ end }}{{ $code | quote }}{{ end }}]
          }
        }
        {{- end }}
        {{- if .CityCodes }},
        {
          "terms": {
            "city_code": [{{ range $i, $code := .CityCodes }}{{ if $i }}, {{ end }}{{ $code | quote }}{{ end }}]
          }
        }
        {{- end }}
        {{- range .Terms }},
        {
          "term": {
            {{ .Field | quote }}: {{ .Value | quote }}
          }
        }
        {{- end }}
        {{- range .Ranges }},
        {
          "range": {
            {{ .Field | quote }}: {
              {{- if .Gte }}
              "gte": {{ .Gte | quote }}{{ if .Lt }},{{ end }}
              {{- end }}
              {{- if .Lt }}
              "lt": {{ .Lt | quote }}
              {{- end }}
            }
          }
        }
        {{- end }}
        {{- if .Search }},
        {
          "multi_match": {
            "query": {{ .Search | quote }},
            "type": "bool_prefix",
            "fields": [{{ range $i, $field := .SearchFields }}{{ if $i }}, {{ end }}{{ $field | quote }}{{ end }}]
          }
        }
        {{- end }}
      ]
      {{- if .MissingDates }},
      "must_not": [
        {{- $first := true -}}
        {{- range .MissingDates -}}
        {{- if $first -}}
        {{- $first = false -}}
        {{- else }},
        {{- end }}
        {
          "exists": {
            "field": {{ . | quote }}
          }
        }
        {{- end }}
      ]
      {{- end }}
    }
  }
  {{- if .SearchAfter }},
  "search_after": {{ .SearchAfter }}
  {{- end }},
  "sort": [
    {"region_code": "asc"},
    {"_id": "asc"}
  ],
  "aggs": {
    "regions": {
      "terms": {
        "field": "region_code",
        "size": 50
      }
    },
    "cities": {
      "terms": {
        "field": "city_code",
        "size": 500
      }
    },
    "expiring_soon": {
      "filter": {
        "bool": {
          "minimum_should_match": 1,
          "should": [
            {"range": {"battery_expiry_date": {"gte": "now/d", "lt": "now+30d/d"}}},
            {"range": {"pad_expiry_date": {"gte": "now/d", "lt": "now+30d/d"}}}
          ]
        }
      }
    }
  }
}`
