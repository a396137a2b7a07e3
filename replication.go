// Copyright 2026 The Yamabiko Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package yamabiko

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yamabiko/yamabiko/internal/gitstore"
)

// PushTask is a handle to one asynchronous replication push. Wait blocks
// until the push completes (successfully or not) and returns its error.
// Dropping a PushTask without calling Wait neither cancels nor awaits the
// background push.
type PushTask struct {
	id uuid.UUID
	g  *errgroup.Group
}

// ID returns the task's correlation id, also present in the structured
// log entry recording its outcome.
func (t *PushTask) ID() uuid.UUID { return t.id }

// Wait blocks until the push this task represents has completed.
func (t *PushTask) Wait() error { return t.g.Wait() }

// replicate evaluates every Replica's selection policy against one shared
// random draw and spawns an independent push goroutine for each selected
// replica, returning a map of remote name to task handle.
func replicate(mu *sync.Mutex, repo *gitstore.Repository, replicas []Replica, logger logrus.FieldLogger, m *metrics) map[string]*PushTask {
	draw := rand.Float64()
	tasks := make(map[string]*PushTask, len(replicas))

	for _, replica := range replicas {
		selected := !replica.Method.random || draw > replica.Method.p
		if !selected {
			continue
		}

		replica := replica
		taskID := uuid.New()
		var g errgroup.Group
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			err := repo.Push(replica.RemoteName, replica.PushOptions)
			result := "success"
			if err != nil {
				result = "failure"
			}
			if m != nil {
				m.replicationPushesTotal.WithLabelValues(replica.RemoteName, result).Inc()
			}
			logger.WithFields(logrus.Fields{
				"task":   taskID.String(),
				"remote": replica.RemoteName,
				"result": result,
			}).Info("replication push completed")
			return err
		})
		tasks[replica.RemoteName] = &PushTask{id: taskID, g: &g}
	}
	return tasks
}
