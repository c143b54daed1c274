package feed

import (
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
)

// Kind is an independently scheduled data type of a competition.
type Kind string

const (
	KindStandings Kind = "standings"
	KindTable     Kind = "table"
	KindScorers   Kind = "scorers"
)

var Kinds = []Kind{KindStandings, KindTable, KindScorers}

func ParseKind(raw string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindStandings, KindTable, KindScorers:
		return kind, true
	default:
		return "", false
	}
}

// Record types found in the provider `data` array.
const (
	RecordTable     = "table"
	RecordMatches   = "matches"
	RecordScorers   = "scorers"
	RecordDetails   = "details"
	RecordMatchInfo = "match_info"
)

// Record is one typed entry of a provider document. Fields the service does
// not interpret are kept verbatim so they can be republished.
type Record map[string]any

func (r Record) Type() string {
	value, _ := r["type"].(string)
	return value
}

// Document is the common shape of every provider response. Top-level keys
// without a typed field are kept in Extra and written back on marshal.
type Document struct {
	Data             []Record       `json:"data"`
	RefreshTime      int64          `json:"refresh_time,omitempty"`
	CurrentRound     int            `json:"current_round,omitempty"`
	SelectableRounds int            `json:"selectable_rounds,omitempty"`
	RoundsDetailed   []Record       `json:"rounds_detailed,omitempty"`
	Extra            map[string]any `json:"-"`
}

type documentFields Document

var typedDocumentKeys = []string{"data", "refresh_time", "current_round", "selectable_rounds", "rounds_detailed"}

func (d *Document) UnmarshalJSON(raw []byte) error {
	var typed documentFields
	if err := sonic.Unmarshal(raw, &typed); err != nil {
		return err
	}
	var all map[string]any
	if err := sonic.Unmarshal(raw, &all); err != nil {
		return err
	}
	for _, key := range typedDocumentKeys {
		delete(all, key)
	}
	if len(all) > 0 {
		typed.Extra = all
	}
	*d = Document(typed)
	return nil
}

// MarshalJSON writes the typed fields; Extra never overrides them.
func (d Document) MarshalJSON() ([]byte, error) {
	typed, err := sonic.Marshal(documentFields(d))
	if err != nil || len(d.Extra) == 0 {
		return typed, err
	}

	merged := make(map[string]any, len(d.Extra)+len(typedDocumentKeys))
	if err := sonic.Unmarshal(typed, &merged); err != nil {
		return nil, err
	}
	for key, value := range d.Extra {
		if _, ok := merged[key]; ok {
			continue
		}
		if isTypedDocumentKey(key) {
			continue
		}
		merged[key] = value
	}
	return sonic.Marshal(merged)
}

func isTypedDocumentKey(key string) bool {
	for _, typed := range typedDocumentKeys {
		if typed == key {
			return true
		}
	}
	return false
}

// RecordsOfType keeps records of the given type that carry a non-empty
// payload under the same key, e.g. `{type: "table", table: [...]}`.
func (d Document) RecordsOfType(recordType string) []Record {
	out := make([]Record, 0, len(d.Data))
	for _, record := range d.Data {
		if record.Type() != recordType {
			continue
		}
		if recordType != RecordMatches && record[recordType] == nil {
			continue
		}
		out = append(out, record)
	}
	return out
}

// RefreshInterval returns the provider hint or fallback when absent.
func (d Document) RefreshInterval(fallback time.Duration) time.Duration {
	if d.RefreshTime <= 0 {
		return fallback
	}
	return time.Duration(d.RefreshTime) * time.Second
}
