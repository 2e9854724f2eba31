package minerpool

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	hpsUpdateSecs   = 4
	hpsDisplaySecs  = 1800
	hpsDisplayTicks = hpsDisplaySecs / hpsUpdateSecs
)

// HashMeter tracks the PoW loop's hashes-per-second, matching the teacher's
// externalminer speedMonitor cadence (periodic channel submissions, a
// ticker-driven aggregation window) but scoped to a single in-process
// worker rather than a pool of remote miners.
type HashMeter struct {
	mu        sync.Mutex
	hashRate  float64
	submitCh  chan int64
	queryCh   chan chan float64
	quit      chan struct{}
	wg        sync.WaitGroup
	persist   *leveldb.DB
	cpuSample time.Duration
}

// NewHashMeter returns a meter. db may be nil, in which case hash-rate
// persistence across restarts is skipped.
func NewHashMeter(db *leveldb.DB) *HashMeter {
	return &HashMeter{
		submitCh:  make(chan int64),
		queryCh:   make(chan chan float64),
		quit:      make(chan struct{}),
		persist:   db,
		cpuSample: 2 * time.Second,
	}
}

// Start runs the meter's aggregation goroutine. Call Stop to shut it down.
func (m *HashMeter) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop signals the aggregation goroutine to exit and waits for it.
func (m *HashMeter) Stop() {
	close(m.quit)
	m.wg.Wait()
}

// Submit reports that count hashes were computed since the last call.
func (m *HashMeter) Submit(count int64) {
	select {
	case m.submitCh <- count:
	case <-m.quit:
	}
}

// HashesPerSecond returns the most recently computed rate.
func (m *HashMeter) HashesPerSecond() float64 {
	reply := make(chan float64, 1)
	select {
	case m.queryCh <- reply:
		return <-reply
	case <-m.quit:
		return 0
	}
}

func (m *HashMeter) run() {
	defer m.wg.Done()

	var counter int64
	start := time.Now()
	ticker := time.NewTicker(hpsUpdateSecs * time.Second)
	defer ticker.Stop()
	displayTick := 0

	for {
		select {
		case n := <-m.submitCh:
			counter += n

		case <-ticker.C:
			elapsedMs := time.Since(start).Milliseconds()
			if elapsedMs > 0 {
				m.mu.Lock()
				m.hashRate = 1000 * float64(counter) / float64(elapsedMs)
				rate := m.hashRate
				m.mu.Unlock()
				m.persistRate(rate)
			}
			counter = 0
			start = time.Now()

			displayTick++
			if displayTick >= hpsDisplayTicks {
				displayTick = 0
				m.mu.Lock()
				rate := m.hashRate
				m.mu.Unlock()
				log.Infof("Hash speed: %6.0f hashes/s", rate)
			}

		case reply := <-m.queryCh:
			m.mu.Lock()
			reply <- m.hashRate
			m.mu.Unlock()

		case <-m.quit:
			return
		}
	}
}

func (m *HashMeter) persistRate(rate float64) {
	if m.persist == nil {
		return
	}
	buf, err := json.Marshal(rate)
	if err != nil {
		return
	}
	_ = m.persist.Put([]byte("minerpool/hashrate"), buf, nil)
}

// cpuLoad reports the process host's current CPU utilization for the stats
// snapshot; the worker count does not depend on it. Errors are swallowed:
// CPU reporting is advisory, never load-bearing for correctness.
func cpuLoad() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return percents[0]
}

// snapshot is the JSON shape pushed to StatsBroadcaster subscribers.
type snapshot struct {
	HashesPerSecond float64 `json:"hashes_per_second"`
	CPUPercent      float64 `json:"cpu_percent"`
	LastBlockTx     uint64  `json:"last_block_tx"`
	LastBlockSize   uint64  `json:"last_block_size"`
	Time            int64   `json:"time"`
}

// StatsBroadcaster fans out periodic miner-stats snapshots to websocket
// subscribers, the way a local dashboard or external miner bridge would
// connect to this node's stats feed.
type StatsBroadcaster struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
}

// NewStatsBroadcaster returns an empty broadcaster ready to accept
// subscribers via ServeHTTP.
func NewStatsBroadcaster() *StatsBroadcaster {
	return &StatsBroadcaster{
		subscribers: make(map[*websocket.Conn]struct{}),
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// ServeHTTP upgrades the connection and registers it as a stats subscriber.
func (s *StatsBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("minerpool: stats websocket upgrade failed: %v", err)
		return
	}
	s.mu.Lock()
	s.subscribers[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.subscribers, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes snap to every currently connected subscriber, dropping
// any connection whose write fails.
func (s *StatsBroadcaster) Broadcast(snap snapshot) {
	buf, err := json.Marshal(snap)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.subscribers {
		if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
			conn.Close()
			delete(s.subscribers, conn)
		}
	}
}
