package bills

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"billed/internal/core"
	"billed/internal/log"
)

const (
	StateIdle State = iota
	StateFileStaged
	StateSubmitted
)

var (
	ErrInvalidReceipt   = errors.New("receipt must be a jpg, jpeg or png file")
	ErrNoReceiptStaged  = errors.New("no valid receipt selected")
	ErrAlreadySubmitted = errors.New("bill already submitted")
	ErrInvalidForm      = errors.New("invalid bill form")
	ErrNotEmployee      = errors.New("only employees can submit bills")
)

type State int

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileStaged:
		return "file_staged"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// FileEvent is the payload of a change on the receipt file input.
type FileEvent struct {
	Name        string
	ContentType string
	Data        []byte
}

type FileResult struct {
	FileName string
	Staged   bool
	// Cleared is set when the selection was rejected and the input must be emptied.
	Cleared bool
}

// SubmitEvent carries the raw form fields of the new bill form.
type SubmitEvent struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

type SubmitResult struct {
	Bill      core.Bill
	Persisted bool
	Redirect  string
}

// Submission drives one new bill form from file selection to submit.
type Submission struct {
	mu      sync.Mutex
	session core.Session
	service Service
	logger  *log.Logger
	now     func() time.Time

	state  State
	staged *core.Receipt
}

// NewSubmission starts an Idle workflow for the employee in session.
func NewSubmission(session core.Session, service Service, logger *log.Logger) (*Submission, error) {
	if !session.IsEmployee() {
		return nil, ErrNotEmployee
	}
	if service == nil {
		return nil, errors.New("bills service is nil")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Submission{
		session: session,
		service: service,
		logger:  logger.WithComponent(log.ComponentWorkflow),
		now:     time.Now,
	}, nil
}

func (s *Submission) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submission) Owner() string {
	return s.session.Email
}

// StagedFile returns the name of the staged receipt, or "" when none is staged.
func (s *Submission) StagedFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staged == nil {
		return ""
	}
	return s.staged.Name
}

// HandleChangeFile validates a newly selected receipt. An accepted file
// replaces any previous one; a rejected file clears the selection.
func (s *Submission) HandleChangeFile(ctx context.Context, ev FileEvent) (FileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return FileResult{}, ErrAlreadySubmitted
	}

	if !core.IsAllowedReceipt(ev.Name) {
		s.staged = nil
		s.state = StateIdle
		s.logger.WarnContext(ctx, "Receipt rejected",
			log.FieldOperation, log.OpChangeFile,
			log.FieldFileName, ev.Name,
			log.FieldContentType, ev.ContentType,
			log.FieldEmail, s.session.Email)
		return FileResult{FileName: ev.Name, Cleared: true}, fmt.Errorf("%w: %q", ErrInvalidReceipt, ev.Name)
	}

	s.staged = &core.Receipt{
		Name:        ev.Name,
		ContentType: ev.ContentType,
		Data:        append([]byte(nil), ev.Data...),
	}
	s.state = StateFileStaged
	s.logger.DebugContext(ctx, "Receipt staged",
		log.FieldOperation, log.OpChangeFile,
		log.FieldFileName, ev.Name,
		log.FieldState, s.state.String())
	return FileResult{FileName: ev.Name, Staged: true}, nil
}

// HandleSubmit builds the bill from the form and hands it, with the staged
// receipt, to the bills service. The call is awaited. A service failure is
// logged and does not prevent the redirect to the bills list.
func (s *Submission) HandleSubmit(ctx context.Context, ev SubmitEvent) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitted:
		return SubmitResult{}, ErrAlreadySubmitted
	case StateIdle:
		return SubmitResult{}, ErrNoReceiptStaged
	}

	bill, err := s.buildBill(ev)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{Bill: bill, Redirect: RouteBills}
	saved, err := s.service.CreateOrUpdate(ctx, bill, *s.staged)
	if err != nil {
		s.logger.ErrorContext(ctx, "Bill submission failed", log.NewFields().
			WithBill("", bill.Email, bill.Type, bill.Amount.Cents, bill.FileName).
			WithOperation(log.OpSubmit).
			WithError(err).
			ToSlice()...)
	} else {
		result.Bill = saved
		result.Persisted = true
		s.logger.InfoContext(ctx, "Bill submitted", log.NewFields().
			WithBill(saved.ID, saved.Email, saved.Type, saved.Amount.Cents, saved.FileName).
			WithOperation(log.OpSubmit).
			ToSlice()...)
	}

	s.state = StateSubmitted
	s.staged = nil
	return result, nil
}

func (s *Submission) buildBill(ev SubmitEvent) (core.Bill, error) {
	cents, err := core.ParseDecimalToCents(ev.Amount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("%w: amount: %v", ErrInvalidForm, err)
	}
	date, err := core.ParseBillDate(ev.Date)
	if err != nil {
		return core.Bill{}, fmt.Errorf("%w: date %q", ErrInvalidForm, ev.Date)
	}
	pct := core.DefaultPct
	if v := strings.TrimSpace(ev.Pct); v != "" {
		if pct, err = strconv.Atoi(v); err != nil {
			return core.Bill{}, fmt.Errorf("%w: pct %q", ErrInvalidForm, ev.Pct)
		}
	}

	bill := core.Bill{
		Email:      s.session.Email,
		Type:       strings.TrimSpace(ev.Type),
		Name:       strings.TrimSpace(ev.Name),
		Date:       date,
		Amount:     core.Money{Cents: cents},
		VAT:        strings.TrimSpace(ev.VAT),
		Pct:        pct,
		Commentary: strings.TrimSpace(ev.Commentary),
		FileName:   s.staged.Name,
		Status:     core.StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := bill.Validate(); err != nil {
		return core.Bill{}, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	return bill, nil
}
