package kvstore

import (
	"sort"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Memory is an in-process KVStore used by tests. Missing keys report
// redis.Nil so callers behave the same against either implementation.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	lists  map[string][]string
	hashes map[string]map[string]string
	zsets  map[string]map[string]float64
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
		lists:  make(map[string][]string),
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string]map[string]float64),
	}
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

func (m *Memory) Set(key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = toString(value)
	return nil
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.lists, key)
	delete(m.hashes, key)
	delete(m.zsets, key)
	return nil
}

func (m *Memory) LPush(key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append([]string{toString(v)}, m.lists[key]...)
	}
	return nil
}

func (m *Memory) RPush(key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append(m.lists[key], toString(v))
	}
	return nil
}

func (m *Memory) LPop(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if len(list) == 0 {
		return "", redis.Nil
	}
	m.lists[key] = list[1:]
	return list[0], nil
}

func (m *Memory) RPop(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if len(list) == 0 {
		return "", redis.Nil
	}
	m.lists[key] = list[:len(list)-1]
	return list[len(list)-1], nil
}

func (m *Memory) LLen(key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

func (m *Memory) LIndex(key string, index int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if index < 0 {
		index += int64(len(list))
	}
	if index < 0 || index >= int64(len(list)) {
		return "", redis.Nil
	}
	return list[index], nil
}

func (m *Memory) LRange(key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}
	out := make([]string, 0, stop-start+1)
	out = append(out, list[start:stop+1]...)
	return out, nil
}

func (m *Memory) LRem(key string, count int64, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := toString(value)
	removed := int64(0)
	out := m.lists[key][:0]
	for _, v := range m.lists[key] {
		if v == target && (count == 0 || removed < count) {
			removed++
			continue
		}
		out = append(out, v)
	}
	m.lists[key] = out
	return nil
}

func (m *Memory) incrBy(key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, _ := strconv.ParseInt(m.values[key], 10, 64)
	cur += delta
	m.values[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *Memory) INCR(key string) (int64, error) {
	return m.incrBy(key, 1)
}

func (m *Memory) DECR(key string) (int64, error) {
	return m.incrBy(key, -1)
}

func (m *Memory) HSet(key, field string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string]string)
	}
	m.hashes[key][field] = toString(value)
	return nil
}

func (m *Memory) HGet(key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.hashes[key][field]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (m *Memory) HGetAll(key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) HDel(key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func (m *Memory) ZAdd(key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	return nil
}

func (m *Memory) ZScore(key, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.zsets[key][member]
	if !ok {
		return 0, redis.Nil
	}
	return score, nil
}

func (m *Memory) ZRem(key string, members ...interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(0)
	for _, member := range members {
		name := toString(member)
		if _, ok := m.zsets[key][name]; ok {
			delete(m.zsets[key], name)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) ZRangeByScore(key string, min, max float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type entry struct {
		member string
		score  float64
	}
	var entries []entry
	for member, score := range m.zsets[key] {
		if score >= min && score <= max {
			entries = append(entries, entry{member, score})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score == entries[j].score {
			return entries[i].member < entries[j].member
		}
		return entries[i].score < entries[j].score
	})
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.member)
	}
	return out, nil
}
