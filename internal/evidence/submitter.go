package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fieldtrace/evidence-cli/internal/credstore"
	"github.com/fieldtrace/evidence-cli/internal/gateway"
	"github.com/fieldtrace/evidence-cli/internal/metrics"
	"github.com/fieldtrace/evidence-cli/pkg/apierrors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	fillFormEndpoint = "PlanDetails/FillForm"
	uploadEndpoint   = "/ImgUpload/UploadImage"

	// Placeholder reason sent on the Yes branch, where no reason applies.
	reasonPlaceholder = "NA"
)

// Receipt describes a completed (or partially completed) submission.
type Receipt struct {
	ID          string
	SubmittedAt time.Time
	Images      int
	FormSaved   bool
	ImagesSaved bool
}

// Submitter runs the two-phase evidence submission: form metadata first,
// then the image upload. Phase order is strict and there is no compensation:
// a phase-2 failure leaves the phase-1 write committed and is surfaced as
// the named partial-submit failure.
type Submitter struct {
	gw     *gateway.Client
	store  credstore.Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewSubmitter creates a submitter.
func NewSubmitter(gw *gateway.Client, store credstore.Store, logger *logrus.Logger) *Submitter {
	return &Submitter{gw: gw, store: store, logger: logger, now: time.Now}
}

type fillFormRequest struct {
	ElementID string `json:"element_id"`
	Evidence  string `json:"evidence"`
	StoreCode string `json:"store_code"`
	TaskID    string `json:"taskid"`
	Reason    string `json:"reason"`
}

// Submit validates the session locally, then runs the two phases in order.
// Validation failures never issue a network call. The image-processing loop
// is sequential to bound peak memory.
func (s *Submitter) Submit(ctx context.Context, session *Session) (*Receipt, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	session.State = StateSubmitting
	receipt := &Receipt{
		ID:          uuid.New().String(),
		SubmittedAt: s.now(),
		Images:      len(session.Images),
	}

	reason := session.Reason
	if session.Evidence == EvidenceYes {
		reason = reasonPlaceholder
	}

	res := s.gw.Fetch(ctx, fillFormEndpoint, gateway.Options{
		Method: http.MethodPost,
		Body: fillFormRequest{
			ElementID: session.Task.ElementID,
			Evidence:  string(session.Evidence),
			StoreCode: session.Task.StoreCode,
			TaskID:    session.Task.TaskID,
			Reason:    reason,
		},
	})
	if !phaseAccepted(res) {
		session.State = StateFailed
		metrics.RecordSubmissionPhase("form", "failure")
		return receipt, phaseError(res, "form submission failed")
	}
	receipt.FormSaved = true
	metrics.RecordSubmissionPhase("form", "success")

	// No-evidence submissions carry no images; the form write is the whole
	// submission.
	if session.Evidence != EvidenceYes {
		session.State = StateSubmitted
		return receipt, nil
	}

	body, contentType, err := s.buildUploadBody(ctx, session)
	if err != nil {
		session.State = StateFailed
		metrics.RecordSubmissionPhase("upload", "failure")
		return receipt, apierrors.NewAppError(apierrors.CodePartialSubmit,
			"form saved but image payload could not be built", err)
	}

	res = s.gw.Fetch(ctx, uploadEndpoint, gateway.Options{
		Method:      http.MethodPost,
		RawBody:     body,
		ContentType: contentType,
	})
	if !phaseAccepted(res) {
		session.State = StateFailed
		metrics.RecordSubmissionPhase("upload", "failure")
		s.logger.WithFields(logrus.Fields{
			"submission_id": receipt.ID,
			"task_id":       session.Task.TaskID,
		}).Error("Image upload failed after form was saved")
		return receipt, phaseErrorWithCode(res, apierrors.CodePartialSubmit,
			"form saved but image upload failed")
	}
	receipt.ImagesSaved = true
	metrics.RecordSubmissionPhase("upload", "success")
	metrics.RecordSubmissionImages(len(session.Images))

	session.State = StateSubmitted
	s.logger.WithFields(logrus.Fields{
		"submission_id": receipt.ID,
		"images":        len(session.Images),
	}).Info("Evidence submitted")

	return receipt, nil
}

// buildUploadBody assembles the multipart payload: identifying fields, the
// geolocation (0,0 when unavailable, a valid sentinel), then image parts
// keyed by ordinal position. Field naming depends on insertion order, so
// images are written directly in sequence, never via a map.
func (s *Submitter) buildUploadBody(ctx context.Context, session *Session) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	creds := s.store.Load(ctx)

	longitude, latitude := "0", "0"
	if session.Location != nil {
		longitude = strconv.FormatFloat(session.Location.Longitude, 'f', -1, 64)
		latitude = strconv.FormatFloat(session.Location.Latitude, 'f', -1, 64)
	}

	capturedAt := session.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}

	fields := []struct{ name, value string }{
		{"plan", session.Task.MediaPlanID},
		{"elementid", session.Task.ElementID},
		{"store", session.Task.StoreCode},
		{"date", capturedAt.Format("2006-01-02 15:04:05")},
		{"task", session.Task.TaskID},
		{"executiontemplateid", session.Task.ExecutionTemplateID},
		{"tokenid", creds.Token},
		{"longitude", longitude},
		{"latitude", latitude},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.name, err)
		}
	}

	for i, img := range session.Images {
		if err := writeImagePart(writer, i+1, img); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func writeImagePart(writer *multipart.Writer, ordinal int, img ImageRef) error {
	f, err := os.Open(img.URI)
	if err != nil {
		return fmt.Errorf("opening image %d: %w", ordinal, err)
	}
	defer f.Close()

	fileName := img.FileName
	if fileName == "" {
		fileName = filepath.Base(img.URI)
	}

	part, err := writer.CreateFormFile(fmt.Sprintf("image%d", ordinal), fileName)
	if err != nil {
		return fmt.Errorf("creating form file for image %d: %w", ordinal, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying image %d: %w", ordinal, err)
	}
	return nil
}

// phaseAccepted decides whether a phase succeeded. Text responses are
// reinterpreted through the keyword rule; JSON and no-content responses use
// the structured success flag.
func phaseAccepted(res gateway.Result) bool {
	if res.IsTextResponse {
		return res.Success && res.TextIndicatesSuccess()
	}
	return res.Success
}

func phaseError(res gateway.Result, message string) error {
	code := apierrors.CodeHTTPError
	if res.IsNetworkError {
		code = apierrors.CodeNetworkError
	}
	return phaseErrorWithCode(res, code, message)
}

func phaseErrorWithCode(res gateway.Result, code apierrors.ErrorCode, message string) error {
	detail := res.Error
	if detail == "" && res.IsTextResponse {
		detail = "unexpected response: " + res.RawResponse
	}
	if detail != "" {
		message = message + ": " + detail
	}
	return &apierrors.AppError{
		Code:       code,
		Message:    message,
		StatusCode: res.StatusCode,
	}
}
