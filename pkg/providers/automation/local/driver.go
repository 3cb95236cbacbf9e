// Package local implements the automation provider boundary on a locally
// driven Chrome instance via chromedp. It understands only the base actions
// it can resolve mechanically (navigation, waiting, scrolling, history); every
// other instruction is reported through the output callback and skipped. It
// exists for credential-free development runs, not as a full agent.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
)

type browserSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

type Driver struct {
	mu       sync.Mutex
	sessions map[string]*browserSession
	headless bool
	logger   *slog.Logger
}

func NewDriver(headless bool, logger *slog.Logger) *Driver {
	return &Driver{
		sessions: make(map[string]*browserSession),
		headless: headless,
		logger:   logger,
	}
}

var _ automation.Provider = (*Driver)(nil)

func (d *Driver) CreateSession(ctx context.Context, _ automation.SessionOptions) (*models.RemoteSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", d.headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()

		return nil, fmt.Errorf("failed to start local browser: %w", err)
	}

	id := uuid.New().String()

	d.mu.Lock()
	d.sessions[id] = &browserSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
	}
	d.mu.Unlock()

	d.logger.Info("Started local browser session", "session_id", id)

	return &models.RemoteSession{ID: id}, nil
}

func (d *Driver) Execute(ctx context.Context, session *models.RemoteSession, task string, cb automation.Callbacks) (*automation.Result, error) {
	d.mu.Lock()
	bs, ok := d.sessions[session.ID]
	d.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown local session %s", session.ID)
	}

	instructions := parseInstructions(task)
	if len(instructions) == 0 {
		return nil, fmt.Errorf("task description contains no instructions")
	}

	executed := 0
	skipped := 0

	for i, instruction := range instructions {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		outcome, err := d.perform(bs.ctx, instruction)
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%q) failed: %w", i+1, instruction, err)
		}

		if outcome == "" {
			skipped++
			outcome = "skipped: no mechanical interpretation for this instruction"
		} else {
			executed++
		}

		if cb.OnStep != nil {
			data, _ := json.Marshal(map[string]string{
				"instruction": instruction,
				"outcome":     outcome,
			})
			cb.OnStep(automation.AgentStep{Index: i + 1, Data: data})
		}

		if cb.OnAgentOutput != nil {
			data, _ := json.Marshal(map[string]string{"outcome": outcome})
			cb.OnAgentOutput(data)
		}
	}

	output := fmt.Sprintf("Local browser run finished: %d of %d instructions executed, %d skipped.",
		executed, len(instructions), skipped)

	return &automation.Result{Output: output}, nil
}

func (d *Driver) CloseSession(_ context.Context, session *models.RemoteSession) error {
	d.mu.Lock()
	bs, ok := d.sessions[session.ID]
	delete(d.sessions, session.ID)
	d.mu.Unlock()

	if !ok {
		return nil
	}

	bs.cancel()
	bs.allocCancel()

	return nil
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// parseInstructions recovers the individual step lines from a composed task
// description. Lines without the step prefix are treated as one instruction
// each, so a bare task string still executes.
func parseInstructions(task string) []string {
	var instructions []string

	for _, line := range strings.Split(task, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")

		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}

		instructions = append(instructions, line)
	}

	return instructions
}

// perform executes one instruction when it maps onto a base action. It
// returns an empty outcome for instructions it cannot interpret.
func (d *Driver) perform(ctx context.Context, instruction string) (string, error) {
	lower := strings.ToLower(instruction)

	if url := urlPattern.FindString(instruction); url != "" &&
		(strings.HasPrefix(lower, "go to") || strings.HasPrefix(lower, "navigate") || strings.HasPrefix(lower, "open")) {
		if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
			return "", err
		}

		return "navigated to " + url, nil
	}

	if strings.HasPrefix(lower, "wait") {
		seconds := 2
		if match := regexp.MustCompile(`\d+`).FindString(lower); match != "" {
			if n, err := strconv.Atoi(match); err == nil && n > 0 && n <= 30 {
				seconds = n
			}
		}

		if err := chromedp.Run(ctx, chromedp.Sleep(time.Duration(seconds)*time.Second)); err != nil {
			return "", err
		}

		return fmt.Sprintf("waited %d seconds", seconds), nil
	}

	if strings.HasPrefix(lower, "scroll") {
		direction := "window.scrollBy(0, window.innerHeight)"
		if strings.Contains(lower, "up") || strings.Contains(lower, "top") {
			direction = "window.scrollBy(0, -window.innerHeight)"
		}

		if err := chromedp.Run(ctx, chromedp.Evaluate(direction, nil)); err != nil {
			return "", err
		}

		return "scrolled", nil
	}

	if strings.HasPrefix(lower, "go back") || strings.HasPrefix(lower, "move back") {
		if err := chromedp.Run(ctx, chromedp.NavigateBack()); err != nil {
			return "", err
		}

		return "navigated back", nil
	}

	if strings.HasPrefix(lower, "go forward") || strings.HasPrefix(lower, "move forward") {
		if err := chromedp.Run(ctx, chromedp.NavigateForward()); err != nil {
			return "", err
		}

		return "navigated forward", nil
	}

	if strings.HasPrefix(lower, "reload") || strings.HasPrefix(lower, "refresh") {
		if err := chromedp.Run(ctx, chromedp.Reload()); err != nil {
			return "", err
		}

		return "reloaded page", nil
	}

	d.logger.Debug("No mechanical interpretation for instruction", "instruction", instruction)

	return "", nil
}
