package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nuqta-lab/mooda/internal/cache"
	"github.com/nuqta-lab/mooda/internal/model"
	"github.com/nuqta-lab/mooda/internal/repository"
	"github.com/nuqta-lab/mooda/internal/service"
)

// Drives the full submission pipeline against a real Redis to measure
// end-to-end latency of guard + persist + count + snapshot publish.
func main() {
	ctx := context.Background()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}
	client.FlushAll(ctx)

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
	mustDo(db.AutoMigrate(&model.Mood{}))

	N := 2000
	if s := os.Getenv("N"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			N = v
		}
	}
	WORKERS := 16
	if s := os.Getenv("WORKERS"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			WORKERS = v
		}
	}

	kv := cache.New(client)
	moodRepo := repository.NewMoodRepository(db)
	guard := service.NewSubmissionGuard(kv, time.UTC)
	limiter := service.NewRateLimiter(kv, time.Minute)
	counters := service.NewCounterStore(kv, 48*time.Hour)
	stats := service.NewStatsService(counters, moodRepo, 100)
	countries := service.NewCountryService()
	// rate threshold high enough that unique identities never trip it
	moods := service.NewMoodService(kv, moodRepo, guard, limiter, counters, stats, countries, 1000)

	ccs := []string{"UZ", "US", "DE", "JP", "BR", "FR", "IN", "NG"}
	types := model.MoodTypes

	jobs := make(chan int, N)
	for i := 0; i < N; i++ {
		jobs <- i
	}
	close(jobs)

	durations := make([]time.Duration, 0, N)
	var mu sync.Mutex
	var accepted, rejected int64

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < WORKERS; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for range jobs {
				cmd := service.SubmitCommand{
					MoodType: types[rnd.Intn(len(types))].String(),
					Country:  ccs[rnd.Intn(len(ccs))],
					Identity: service.DeviceIdentity(uuid.NewString()),
				}
				st := time.Now()
				_, err := moods.Submit(ctx, cmd)
				d := time.Since(st)
				mu.Lock()
				durations = append(durations, d)
				if err != nil {
					rejected++
				} else {
					accepted++
				}
				mu.Unlock()
			}
		}(int64(w) + 42)
	}
	wg.Wait()
	elapsed := time.Since(start)

	live, err := stats.Live(ctx, "", "")
	mustDo(err)

	fmt.Printf("submissions=%d accepted=%d rejected=%d workers=%d elapsed=%v rate=%.0f/s\n",
		N, accepted, rejected, WORKERS, elapsed, float64(N)/elapsed.Seconds())
	fmt.Printf("latency avg=%v p95=%v p99=%v\n", avg(durations), pct(durations, 0.95), pct(durations, 0.99))
	fmt.Printf("snapshot totalCount=%d top=%v\n", live.TotalCount, live.Top)
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
