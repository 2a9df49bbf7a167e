package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/eventhub/config"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/repository"
	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// 同一个活动上并发做 浏览/收藏/外链点击，每个用户每种动作重复 REPEAT 次，
// 最后检查每个 (user, event) 只有一条台账记录。
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()

	users := repository.NewUserRepository(db)
	eventsRepo := repository.NewEventRepository(db)
	ledger := repository.NewInteractionRepository(db)
	events := service.NewEventService(eventsRepo, nil, nil)
	interactions := service.NewInteractionService(users, eventsRepo, ledger)
	ctx := context.Background()

	n := envInt("N", 1000)
	conc := envInt("CONC", 16)
	repeat := envInt("REPEAT", 3)

	e := &model.Event{
		EventID:    uuid.NewString(),
		Title:      "ledgerbench",
		Deadline:   model.NewDate(time.Now().AddDate(0, 1, 0)),
		TypesEvent: model.CategoryEvent,
		TypeURL:    "https://example.com/ledgerbench",
	}
	if err := eventsRepo.Create(ctx, e); err != nil {
		panic(err)
	}

	ids := make([]string, n)
	batch := make([]model.User, 0, 1000)
	flush := func() {
		if len(batch) > 0 {
			if err := db.Create(&batch).Error; err != nil {
				panic(err)
			}
			batch = batch[:0]
		}
	}
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		ids[i] = id
		batch = append(batch, model.User{ID: id, Email: id[:8] + "-" + strconv.Itoa(i) + "@bench.local", Password: "x", IsActive: true})
		if len(batch) == cap(batch) {
			flush()
		}
	}
	flush()

	type op struct {
		name string
		run  func(userID string) error
	}
	ops := []op{
		{"view", func(u string) error { _, err := events.GetEventDetail(ctx, e.EventID, u); return err }},
		{"like", func(u string) error {
			err := interactions.AddFavorite(ctx, u, e.EventID)
			if errors.Is(err, service.ErrAlreadyFavorited) {
				return nil
			}
			return err
		}},
		{"link", func(u string) error { return interactions.RecordLinkClick(ctx, u, e.EventID) }},
	}

	type sample struct {
		op int
		d  time.Duration
	}
	feed := make(chan int, n*repeat*len(ops))
	for r := 0; r < repeat; r++ {
		for i := 0; i < n; i++ {
			for k := range ops {
				feed <- i*len(ops) + k
			}
		}
	}
	close(feed)

	out := make(chan sample, cap(feed))
	var failures sync.Map
	var wg sync.WaitGroup
	t0 := time.Now()
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range feed {
				u, k := ids[job/len(ops)], job%len(ops)
				st := time.Now()
				if err := ops[k].run(u); err != nil {
					failures.Store(ops[k].name+": "+err.Error(), struct{}{})
				}
				out <- sample{op: k, d: time.Since(st)}
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)
	close(out)

	recs := make([][]time.Duration, len(ops))
	for s := range out {
		recs[s.op] = append(recs[s.op], s.d)
	}

	fmt.Printf("N=%d, CONC=%d, REPEAT=%d, total=%v\n", n, conc, repeat, total)
	for k, o := range ops {
		fmt.Printf("%-5s samples=%d p50=%v p95=%v p99=%v\n",
			o.name, len(recs[k]), pct(recs[k], 0.50), pct(recs[k], 0.95), pct(recs[k], 0.99))
	}
	failures.Range(func(k, _ interface{}) bool {
		fmt.Printf("error: %v\n", k)
		return true
	})

	var rows, dupPairs int64
	if err := db.Model(&model.EventInteraction{}).Where("event_id = ?", e.EventID).Count(&rows).Error; err != nil {
		panic(err)
	}
	if err := db.Raw(`SELECT COUNT(*) FROM (SELECT user_id FROM event_interactions WHERE event_id = ?
		GROUP BY user_id HAVING COUNT(*) > 1) d`, e.EventID).Scan(&dupPairs).Error; err != nil {
		panic(err)
	}
	stored := must(eventsRepo.Get(ctx, e.EventID))

	fmt.Printf("ledger rows=%d (want %d), duplicate pairs=%d, click=%d (want %d)\n",
		rows, n, dupPairs, stored.Click, n*repeat)
	if rows != int64(n) || dupPairs != 0 || stored.Click != int64(n*repeat) {
		os.Exit(1)
	}
}
