// Benchmark tool: measures timeline read latency and QPS against a seeded
// dataset. A worker pool fetches timelines for random users and aggregates
// avg, p95, and error counts. With -csv the run is appended to a results
// file for plotting.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Moustapha2526/TinyIsnta/internal/bootstrap"
	"github.com/Moustapha2526/TinyIsnta/internal/config"
	"github.com/Moustapha2526/TinyIsnta/internal/feed"
	"github.com/Moustapha2526/TinyIsnta/internal/logger"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
)

func main() {
	var requests int
	var concurrency int
	var limit int
	var users int
	var prefix string
	var param string
	var run int
	var csvPath string
	flag.IntVar(&requests, "requests", 200, "total number of timeline requests")
	flag.IntVar(&concurrency, "concurrency", 10, "number of concurrent workers")
	flag.IntVar(&limit, "limit", feed.DefaultLimit, "timeline limit per request")
	flag.IntVar(&users, "users", 5, "seeded user id space (1..users)")
	flag.StringVar(&prefix, "prefix", "user", "seeded username prefix")
	flag.StringVar(&param, "param", "", "label for the varied parameter, recorded in the CSV")
	flag.IntVar(&run, "run", 1, "run number, recorded in the CSV")
	flag.StringVar(&csvPath, "csv", "", "append results to this CSV file (empty = stdout only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init("tinyinsta-bench", cfg.Debug)

	ctx := context.Background()
	st, err := bootstrap.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init store")
	}

	graph := social.NewGraph(st)
	posts := social.NewPosts(st)
	feedSvc := feed.NewService(graph, posts)

	type result struct {
		latency time.Duration
		err     error
	}

	jobs := make(chan struct{}, requests)
	results := make(chan result, requests)
	for i := 0; i < requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(concurrency)

	startAll := time.Now()
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for range jobs {
				user := fmt.Sprintf("%s%d", prefix, 1+rand.Intn(users))
				start := time.Now()
				_, err := feedSvc.GetTimeline(ctx, user, limit)
				results <- result{latency: time.Since(start), err: err}
			}
		}()
	}
	wg.Wait()
	close(results)
	totalDur := time.Since(startAll)

	var latencies []time.Duration
	var failed int
	for r := range results {
		if r.err != nil {
			failed++
			continue
		}
		latencies = append(latencies, r.latency)
	}
	if len(latencies) == 0 {
		log.Fatal().Int("failed", failed).Msg("no successful requests")
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg := time.Duration(int64(sum) / int64(len(latencies)))
	p95 := latencies[int(float64(len(latencies))*0.95)-1]
	qps := float64(len(latencies)) / totalDur.Seconds()

	fmt.Printf("Requests: %d, Concurrency: %d, Failed: %d\n", len(latencies), concurrency, failed)
	fmt.Printf("Avg latency: %s\n", avg.Truncate(time.Microsecond))
	fmt.Printf("P95 latency: %s\n", p95.Truncate(time.Microsecond))
	fmt.Printf("Total QPS: %.2f\n", qps)

	if csvPath != "" {
		if err := appendCSV(csvPath, param, run, avg, failed); err != nil {
			log.Fatal().Err(err).Str("path", csvPath).Msg("write csv")
		}
	}
}

// appendCSV appends one row to the results file, writing the header first
// when the file is new.
func appendCSV(path, param string, run int, avg time.Duration, failed int) error {
	info, err := os.Stat(path)
	writeHeader := err != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write([]string{"PARAM", "RUN", "AVG_TIME", "FAILED"}); err != nil {
			return err
		}
	}
	row := []string{
		param,
		strconv.Itoa(run),
		strconv.FormatFloat(avg.Seconds(), 'f', 6, 64),
		strconv.Itoa(failed),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
