package taxonomy

import (
	"strconv"
	"strings"
)

// Skip is the sentinel an operator picks to permanently ignore a CSV value.
const Skip = "__SKIP__"

// Memory holds operator resolutions keyed by mapping key. Values are either
// Skip or the resolved target (a term id for paths, an audience value for
// labels). The caller owns the map and feeds it back on every step.
type Memory map[string]string

// Option is one selectable resolution offered to the operator.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Mismatch describes a CSV value the resolver could not place. Processing
// suspends until the operator maps it to one of Options or to Skip.
type Mismatch struct {
	MappingKey string   `json:"mappingKey"`
	CSVValue   string   `json:"csvValue"`
	Context    string   `json:"context"`
	Options    []Option `json:"options"`
}

// PathKey builds the memory key for a category value under a parent term.
func PathKey(parent int64, value string) string {
	return "tax:" + formatID(parent) + ":" + value
}

// AudienceKey builds the memory key for an audience label under a field.
func AudienceKey(field, label string) string {
	return "aud:" + field + ":" + label
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
