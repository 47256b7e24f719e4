/*-------------------------------------------------------------------------
 *
 * static.go
 *    In-memory record store for development installs
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/records/static.go
 *
 *-------------------------------------------------------------------------
 */

package records

import (
	"context"
	"fmt"
	"sync"
)

/* StaticService serves records from a fixed in-memory set */
type StaticService struct {
	mu      sync.RWMutex
	records map[string]map[string]interface{}
}

/* NewStaticService creates a static service seeded with the given records */
func NewStaticService(seed []map[string]interface{}) *StaticService {
	s := &StaticService{records: make(map[string]map[string]interface{})}
	for i, record := range seed {
		id, ok := record["id"].(string)
		if !ok || id == "" {
			id = fmt.Sprintf("record-%d", i+1)
			record["id"] = id
		}
		s.records[id] = record
	}
	return s
}

/* Query returns records whose attributes match every filter */
func (s *StaticService) Query(ctx context.Context, filters map[string]interface{}) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []map[string]interface{}{}
	for _, record := range s.records {
		if matchesFilters(record, filters) {
			matches = append(matches, cloneRecord(record))
		}
	}
	return matches, nil
}

/* Find fetches a single record by id */
func (s *StaticService) Find(ctx context.Context, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record not found: id='%s'", id)
	}
	return cloneRecord(record), nil
}

/* Update patches a record's attributes and returns the updated record */
func (s *StaticService) Update(ctx context.Context, id string, attrs map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record not found: id='%s'", id)
	}
	for key, value := range attrs {
		record[key] = value
	}
	return cloneRecord(record), nil
}

func matchesFilters(record, filters map[string]interface{}) bool {
	for key, want := range filters {
		got, ok := record[key]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cloneRecord(record map[string]interface{}) map[string]interface{} {
	clone := make(map[string]interface{}, len(record))
	for key, value := range record {
		clone[key] = value
	}
	return clone
}
