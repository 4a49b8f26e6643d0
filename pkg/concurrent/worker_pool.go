package concurrent

import (
	"sync"
)

// Job satu unit kerja, ID dipakai untuk mengembalikan urutan hasil.
type Job[T any] struct {
	ID      int
	JobItem T
}

type JobResult[G any] struct {
	ID     int
	Result G
}

type JobFunc[T any, G any] func(job T) G

type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan JobResult[G]
	wg         sync.WaitGroup
	nextID     int
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], jobQueueSize),
		results:    make(chan JobResult[G], jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- JobResult[G]{ID: job.ID, Result: jobFunc(job.JobItem)}
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

// AddJob returns the id of the queued job. Tidak boleh dipanggil setelah Close.
func (wp *WorkerPool[T, G]) AddJob(item T) int {
	id := wp.nextID
	wp.nextID++
	wp.jobQueue <- Job[T]{ID: id, JobItem: item}
	return id
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) CollectResults() chan JobResult[G] {
	return wp.results
}

// Run jalankan fn untuk semua items lalu kembalikan hasil dengan urutan yang sama dengan items.
func Run[T any, G any](numWorkers int, items []T, fn JobFunc[T, G]) []G {
	wp := NewWorkerPool[T, G](numWorkers, len(items))
	for _, it := range items {
		wp.AddJob(it)
	}
	wp.Close()
	wp.Start(fn)
	wp.Wait()

	out := make([]G, len(items))
	for res := range wp.CollectResults() {
		out[res.ID] = res.Result
	}
	return out
}
