package cache

import (
	"fmt"
	"sort"
	"strings"
)

const keyPrefix = "ems"

const (
	OpList   = "list"
	OpDetail = "detail"
)

func Namespace(resource string) string {
	return keyPrefix + ":" + resource
}

// GenerateKey builds ns:op:k1=v1:k2=v2 with params sorted by name, so the
// same inputs always map to the same key.
func GenerateKey(ns, op string, params map[string]any) string {
	var b strings.Builder
	b.WriteString(ns)
	b.WriteByte(':')
	b.WriteString(op)

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, ":%s=%v", k, params[k])
	}
	return b.String()
}

func DetailKey(ns, id string) string {
	return GenerateKey(ns, OpDetail, map[string]any{"id": id})
}

func ListPattern(ns string) string {
	return ns + ":" + OpList + ":*"
}
