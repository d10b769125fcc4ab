package evidence

import (
	"context"
	"time"

	"github.com/fieldtrace/evidence-cli/internal/geo"
	"github.com/fieldtrace/evidence-cli/pkg/apierrors"
	"github.com/sirupsen/logrus"
)

// Session is one in-progress evidence submission. It is transient: created
// per user action and discarded after a successful submit acknowledgment.
// All images in a session share one location and capture timestamp.
type Session struct {
	Task       TaskRef
	Evidence   EvidenceFlag
	Reason     string
	Images     []ImageRef
	Location   *geo.Location
	CapturedAt time.Time
	State      State

	maxImages  int
	geoTimeout time.Duration
	locator    geo.Locator
	logger     *logrus.Logger
	now        func() time.Time
}

// NewSession starts a capture session for a task.
func NewSession(task TaskRef, maxImages int, geoTimeout time.Duration, locator geo.Locator, logger *logrus.Logger) *Session {
	return &Session{
		Task:       task,
		State:      StateIdle,
		maxImages:  maxImages,
		geoTimeout: geoTimeout,
		locator:    locator,
		logger:     logger,
		now:        time.Now,
	}
}

// SetEvidence records the Yes/No answer. Yes and No are mutually exclusive
// branches: choosing one clears the other branch's data.
func (s *Session) SetEvidence(flag EvidenceFlag) {
	s.Evidence = flag
	s.State = StateSelectingEvidence
	switch flag {
	case EvidenceYes:
		s.Reason = ""
	case EvidenceNo:
		s.Images = nil
	}
}

// SetReason records the non-completion reason for the No branch.
func (s *Session) SetReason(reason string) {
	s.Reason = reason
	if reason != "" {
		s.State = StateHasReason
	}
}

// AddImages appends newly picked images to the session. When the combined
// count exceeds the configured maximum the list is clamped to the maximum,
// preserving insertion order; the overflow is dropped and reported, not an
// error. Each call with accepted images stamps the capture time and makes
// one best-effort location fetch.
func (s *Session) AddImages(ctx context.Context, images []ImageRef) (accepted, dropped int) {
	if len(images) == 0 {
		return 0, 0
	}

	before := len(s.Images)
	s.Images = append(s.Images, images...)
	if len(s.Images) > s.maxImages {
		dropped = len(s.Images) - s.maxImages
		s.Images = s.Images[:s.maxImages]
	}
	accepted = len(s.Images) - before

	if accepted == 0 {
		return accepted, dropped
	}

	s.State = StateHasImages
	s.CapturedAt = s.now()
	s.fetchLocation(ctx)
	return accepted, dropped
}

// fetchLocation makes a single attempt under the configured timeout. Failure
// leaves the session without a location; the upload's 0,0 sentinel covers it.
func (s *Session) fetchLocation(ctx context.Context) {
	if s.locator == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()

	loc, err := s.locator.Current(ctx)
	if err != nil {
		s.logger.WithError(err).Debug("Location unavailable for capture session")
		return
	}
	s.Location = &loc
}

// Validate enforces the form rules before any network call: an evidence
// answer is required, Yes needs at least one image, No needs a reason.
func (s *Session) Validate() error {
	switch s.Evidence {
	case EvidenceYes:
		if len(s.Images) == 0 {
			return apierrors.NewAppError(apierrors.CodeValidationError,
				"please capture or select an image", nil)
		}
	case EvidenceNo:
		if s.Reason == "" {
			return apierrors.NewAppError(apierrors.CodeValidationError,
				"please select a reason", nil)
		}
	default:
		return apierrors.NewAppError(apierrors.CodeValidationError,
			"please select if valid evidence is available", nil)
	}
	return nil
}
