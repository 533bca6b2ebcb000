// Command worker is a reference worker for the gateway's job queues. It
// consumes one algorithm's input queue, applies the filter in-process and
// reports outcomes on the unified results queue. Production workers scale
// independently; this binary exists so a single docker compose file yields a
// working pipeline.
package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"pixelgate/internal/model"
	"pixelgate/pkg/blob"
	"pixelgate/pkg/config"
	"pixelgate/pkg/logger"
	queueasynq "pixelgate/pkg/queue/asynq"
	redisstore "pixelgate/pkg/store/redis"
)

func main() {
	if err := config.Init(); err != nil {
		logger.FatalCtx(nil, "Failed to load configuration: %v", err)
	}
	if err := logger.Init(); err != nil {
		logger.FatalCtx(nil, "Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	algorithm := os.Getenv("WORKER_ALGORITHM")
	if algorithm == "" {
		algorithm = "grayscale"
	}
	cfg := config.GlobalConfig

	var queueName string
	for _, svc := range cfg.Services {
		if svc.Name == algorithm {
			queueName = svc.Queue
		}
	}
	if queueName == "" {
		logger.FatalCtx(nil, "Algorithm %q is not configured", algorithm)
	}

	redisClient, err := redisstore.NewClient(cfg.Redis)
	if err != nil {
		logger.FatalCtx(nil, "Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	blobs := blob.NewRedisStore(redisClient.GetClient(), time.Duration(cfg.Blob.TTL)*time.Second)
	queueMgr := queueasynq.NewManager(cfg)
	defer queueMgr.Close()

	w := &worker{algorithm: algorithm, blobs: blobs, queue: queueMgr}
	if err := queueMgr.StartJobConsumer(queueName, 4, w.handleJob); err != nil {
		logger.FatalCtx(nil, "Failed to start job consumer: %v", err)
	}
	logger.Infof("worker consuming queue %s for algorithm %s", queueName, algorithm)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("worker shutting down")
}

type worker struct {
	algorithm string
	blobs     blob.Store
	queue     *queueasynq.Manager
}

// handleJob processes one job. Outcomes go to the results queue; the job
// message itself is always acknowledged, retrying a deterministic filter
// cannot change its outcome.
func (w *worker) handleJob(ctx context.Context, msg *model.JobMessage) error {
	start := time.Now()

	if err := w.queue.PublishResult(ctx, &model.ResultMessage{
		RequestID: msg.RequestID,
		Algorithm: msg.Algorithm,
		Status:    model.ResultStatusProcessing,
	}); err != nil {
		logger.WarnCtx(ctx, "failed to report processing for %s: %v", msg.RequestID, err)
	}

	resultKey, err := w.process(ctx, msg)
	if err != nil {
		logger.ErrorCtx(ctx, "job failed, request_id: %s, error: %v", msg.RequestID, err)
		return w.queue.PublishResult(ctx, &model.ResultMessage{
			RequestID: msg.RequestID,
			Algorithm: msg.Algorithm,
			Status:    model.ResultStatusFailed,
			Error:     err.Error(),
		})
	}

	return w.queue.PublishResult(ctx, &model.ResultMessage{
		RequestID: msg.RequestID,
		Algorithm: msg.Algorithm,
		Status:    model.ResultStatusCompleted,
		ResultKey: resultKey,
		Metrics: map[string]float64{
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"passes":      float64(msg.Parameters.Passes),
		},
	})
}

func (w *worker) process(ctx context.Context, msg *model.JobMessage) (string, error) {
	data, _, err := w.blobs.Get(ctx, msg.ImageKey)
	if err != nil {
		return "", fmt.Errorf("failed to load input image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	out := toGray(img)
	passes := msg.Parameters.Passes
	if passes < 1 {
		passes = 1
	}
	switch w.algorithm {
	case "grayscale":
		// Grayscale is idempotent, extra passes are a no-op
	case "sobel":
		for i := 0; i < passes; i++ {
			out = sobel(out)
		}
	default:
		return "", fmt.Errorf("unsupported algorithm %q", w.algorithm)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	resultKey := "output/" + msg.RequestID
	if err := w.blobs.Put(ctx, resultKey, buf.Bytes(), "image/png"); err != nil {
		return "", fmt.Errorf("failed to store result: %w", err)
	}
	return resultKey, nil
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// sobel applies the Sobel operator for edge detection
func sobel(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)

	kx := [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	ky := [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var gx, gy int
			for j := -1; j <= 1; j++ {
				for i := -1; i <= 1; i++ {
					v := int(src.GrayAt(x+i, y+j).Y)
					gx += v * kx[j+1][i+1]
					gy += v * ky[j+1][i+1]
				}
			}
			mag := gx*gx + gy*gy
			if mag > 255*255 {
				mag = 255 * 255
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(isqrt(mag))})
		}
	}
	return dst
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
