// ABOUTME: List response envelopes used by the hub and controller/EDA APIs
// ABOUTME: Decodes either shape into one ListResponse type chosen at construction time

package api

import (
	"encoding/json"
	"fmt"
)

// Envelope selects the JSON shape wrapping a list reply.
type Envelope int

const (
	// EnvelopeController is {"results": [...], "count": n, "next": "..."}
	// used by the controller, EDA and Pulp APIs.
	EnvelopeController Envelope = iota
	// EnvelopeHub is {"data": [...], "meta": {"count": n}, "links": {"next": "..."}}
	// used by the hub UI API.
	EnvelopeHub
)

func (e Envelope) String() string {
	switch e {
	case EnvelopeController:
		return "controller"
	case EnvelopeHub:
		return "hub"
	default:
		return fmt.Sprintf("envelope(%d)", int(e))
	}
}

// ListResponse is one page of a remote collection. It is replaced wholesale
// by every fetch and never modified in place.
type ListResponse[T any] struct {
	Items []T
	Count *int   // total items across all pages; nil when the server omitted it
	Next  string // opaque link to the following page; "" on the last page
}

type controllerEnvelope[T any] struct {
	Results []T     `json:"results"`
	Count   *int    `json:"count"`
	Next    *string `json:"next"`
}

type hubEnvelope[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		Count *int `json:"count"`
	} `json:"meta"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

// DecodeList parses body according to the envelope kind.
func DecodeList[T any](kind Envelope, body []byte) (*ListResponse[T], error) {
	switch kind {
	case EnvelopeController:
		var env controllerEnvelope[T]
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decoding %s envelope: %w", kind, err)
		}
		return &ListResponse[T]{Items: nonNil(env.Results), Count: env.Count, Next: deref(env.Next)}, nil
	case EnvelopeHub:
		var env hubEnvelope[T]
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decoding %s envelope: %w", kind, err)
		}
		return &ListResponse[T]{Items: nonNil(env.Data), Count: env.Meta.Count, Next: deref(env.Links.Next)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown envelope %s", ErrInvalidInput, kind)
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
