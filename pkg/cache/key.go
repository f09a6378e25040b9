package cache

import (
	"strings"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "brewery"

// Keys builds Redis keys under one prefix.
type Keys struct {
	Prefix string
}

func (k Keys) prefix() string {
	p := strings.Trim(k.Prefix, ":")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Brewery returns the key holding one brewery.
// Example: brewery:45b4f628-b1fb-4d61-baf9-29b557e987ad
func (k Keys) Brewery(id string) string {
	return k.prefix() + ":" + id
}

// TypeIndex returns the sorted set of ids of one type.
// Example: brewery:type:micro
func (k Keys) TypeIndex(breweryType string) string {
	return k.prefix() + ":type:" + breweryType
}

// Freshness returns the hash of page fetch times of one type.
// Example: brewery:freshness:micro
func (k Keys) Freshness(breweryType string) string {
	return k.prefix() + ":freshness:" + breweryType
}
