package jobqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/scrimspace/scrim-server/pkg/kvstore"
)

// Job is one pending delayed job. Key doubles as the dedupe key: enqueueing
// with an existing key replaces the previous job.
type Job struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Payload  string    `json:"payload"`
	RunAt    time.Time `json:"run_at"`
	Attempts int       `json:"attempts"`
}

type Queue interface {
	Enqueue(job Job) error
	FindByKey(key string) (*Job, error)
	Remove(key string) error
	// ClaimDue returns jobs whose RunAt has passed. A claimed job is leased,
	// not deleted: invisible to further claims until Finish or lease expiry,
	// so a worker crash mid-dispatch re-fires the job. When several workers
	// race, each job goes to exactly one.
	ClaimDue(now time.Time) ([]Job, error)
	// Finish removes a claimed job, unless a newer job took the key while
	// the handler ran.
	Finish(job Job) error
	// Requeue replaces a claimed job with an updated one, unless a newer job
	// took the key while the handler ran; the latest schedule stays
	// authoritative.
	Requeue(claimed, updated Job) error
}

const (
	scheduleKey = "jobs_schedule"
	dataKey     = "jobs_data"

	// leaseWindow is how long a claimed job stays invisible before it
	// re-fires on a worker that never finished it.
	leaseWindow = time.Minute
)

// KVQueue keeps the schedule in a sorted set scored by run-at seconds and
// the job bodies in a hash, both under the shared KV store.
type KVQueue struct {
	KV kvstore.KVStore
}

func New(kv kvstore.KVStore) *KVQueue {
	return &KVQueue{KV: kv}
}

func (q *KVQueue) Enqueue(job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("error marshalling job %s: %v", job.Key, err)
	}
	if err := q.KV.HSet(dataKey, job.Key, string(data)); err != nil {
		return err
	}
	return q.KV.ZAdd(scheduleKey, float64(job.RunAt.Unix()), job.Key)
}

func (q *KVQueue) FindByKey(key string) (*Job, error) {
	data, err := q.KV.HGet(dataKey, key)
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("error unmarshalling job %s: %v", key, err)
	}
	return &job, nil
}

func (q *KVQueue) Remove(key string) error {
	if _, err := q.KV.ZRem(scheduleKey, key); err != nil {
		return err
	}
	return q.KV.HDel(dataKey, key)
}

func (q *KVQueue) ClaimDue(now time.Time) ([]Job, error) {
	keys, err := q.KV.ZRangeByScore(scheduleKey, 0, float64(now.Unix()))
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, key := range keys {
		// ZRem arbitrates: only the caller that removes the member owns the job.
		removed, err := q.KV.ZRem(scheduleKey, key)
		if err != nil {
			return jobs, err
		}
		if removed == 0 {
			continue
		}
		// Lease: the entry comes back at now+lease, the body stays put.
		err = q.KV.ZAdd(scheduleKey, float64(now.Add(leaseWindow).Unix()), key)
		if err != nil {
			return jobs, err
		}
		data, err := q.KV.HGet(dataKey, key)
		if err != nil {
			if err == redis.Nil {
				// Schedule entry without a body; drop the stray lease.
				q.KV.ZRem(scheduleKey, key)
				continue
			}
			return jobs, err
		}
		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return jobs, fmt.Errorf("error unmarshalling job %s: %v", key, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// stillCurrent reports whether the stored body under the job's key is the
// claimed job itself, as opposed to a replacement enqueued since the claim.
func (q *KVQueue) stillCurrent(job Job) (bool, error) {
	data, err := q.KV.HGet(dataKey, job.Key)
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	claimed, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	return data == string(claimed), nil
}

func (q *KVQueue) Finish(job Job) error {
	ok, err := q.stillCurrent(job)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if _, err := q.KV.ZRem(scheduleKey, job.Key); err != nil {
		return err
	}
	return q.KV.HDel(dataKey, job.Key)
}

func (q *KVQueue) Requeue(claimed, updated Job) error {
	ok, err := q.stillCurrent(claimed)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return q.Enqueue(updated)
}
