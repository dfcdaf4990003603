package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"

	"dirawatch/internal/models"
	"dirawatch/internal/processor"
)

// ErrUnknownMessage is logged for scraper messages with an unrecognized type
var ErrUnknownMessage = errors.New("unknown scraper message type")

// scraper lines carrying a full page of listings can be large
const maxLineSize = 16 * 1024 * 1024

// Message is one JSON line emitted by a scraper
type Message struct {
	Type string          `json:"type"` // "items", "complete", or "error"
	Data json.RawMessage `json:"data"`
}

// BatchProcessor is the part of processor.Processor the manager drives
type BatchProcessor interface {
	ProcessListings(ctx context.Context, raws []models.RawListing, source string) (processor.Stats, error)
}

// Manager feeds scraper output into the listing processor
type Manager struct {
	processor BatchProcessor
	logger    *logrus.Logger
}

// NewManager creates a new ingest manager
func NewManager(p BatchProcessor, logger *logrus.Logger) *Manager {
	return &Manager{
		processor: p,
		logger:    logger,
	}
}

// Consume reads JSON lines from r until EOF and processes every items
// message as one batch. Malformed lines are logged and skipped.
func (m *Manager) Consume(ctx context.Context, source string, r io.Reader) (processor.Stats, error) {
	var total processor.Stats
	log := m.logger.WithField("source", source)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			log.WithError(err).Error("Failed to parse scraper message")
			continue
		}

		switch msg.Type {
		case "items":
			var items []models.RawListing
			if err := json.Unmarshal(msg.Data, &items); err != nil {
				log.WithError(err).Error("Failed to parse items")
				continue
			}
			for i := range items {
				if items[i].Source == "" {
					items[i].Source = source
				}
			}
			stats, err := m.processor.ProcessListings(ctx, items, source)
			if err != nil {
				return total, fmt.Errorf("failed to store items: %w", err)
			}
			total.Add(stats)

		case "complete":
			var complete struct {
				Status     string `json:"status"`
				Message    string `json:"message"`
				TotalItems int    `json:"total_items"`
			}
			if err := json.Unmarshal(msg.Data, &complete); err != nil {
				log.WithError(err).Error("Failed to parse completion message")
				continue
			}
			log.WithFields(logrus.Fields{
				"status":      complete.Status,
				"message":     complete.Message,
				"total_items": complete.TotalItems,
			}).Info("Scraper completed")

		case "error":
			var errMsg struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(msg.Data, &errMsg); err != nil {
				log.WithError(err).Error("Failed to parse error message")
				continue
			}
			log.WithField("message", errMsg.Message).Error("Scraper error")

		default:
			log.WithError(fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)).Warn("Skipping scraper message")
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("failed to read scraper output: %w", err)
	}
	return total, nil
}

// RunCommand runs an external scraper and consumes its stdout. Its stderr
// is forwarded to the log.
func (m *Manager) RunCommand(ctx context.Context, source, name string, args ...string) (processor.Stats, error) {
	m.logger.WithFields(logrus.Fields{
		"source":  source,
		"command": name,
		"args":    args,
	}).Info("Starting scraper")

	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return processor.Stats{}, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return processor.Stats{}, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return processor.Stats{}, fmt.Errorf("failed to start scraper: %w", err)
	}

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			m.logger.WithField("source", source).Warn(scanner.Text())
		}
	}()

	stats, consumeErr := m.Consume(ctx, source, stdout)
	if consumeErr != nil {
		// drain so the scraper is not blocked on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}
	<-stderrDone

	if err := cmd.Wait(); err != nil {
		if consumeErr != nil {
			return stats, consumeErr
		}
		return stats, fmt.Errorf("scraper execution failed: %w", err)
	}
	return stats, consumeErr
}
