package evidence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldtrace/evidence-cli/internal/config"
	"github.com/fieldtrace/evidence-cli/internal/credstore"
	"github.com/fieldtrace/evidence-cli/internal/gateway"
	"github.com/fieldtrace/evidence-cli/internal/geo"
	"github.com/fieldtrace/evidence-cli/pkg/apierrors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubmitter(t *testing.T, baseURL string) (*Submitter, credstore.Store) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"), logger)
	require.NoError(t, store.Save(context.Background(), credstore.Credentials{
		Token:   "tok1",
		Profile: &credstore.Profile{Username: "u1", StoreCode: "1000"},
	}))

	cfg := &config.Config{}
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second

	gw, err := gateway.New(cfg, store, logger)
	require.NoError(t, err)

	return NewSubmitter(gw, store, logger), store
}

func writeTempImages(t *testing.T, n int) []ImageRef {
	t.Helper()
	dir := t.TempDir()
	images := make([]ImageRef, n)
	for i := range images {
		path := filepath.Join(dir, "photo-"+string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0600))
		images[i] = ImageRef{URI: path, Type: "image/jpeg"}
	}
	return images
}

func jsonOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func TestSubmit_ValidationFailuresNeverReachNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceNo) // no reason set

	_, err := submitter.Submit(context.Background(), session)
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.CodeValidationError))
	assert.Zero(t, calls, "rejected submissions must not issue a network call")
}

func TestSubmit_NoBranchSkipsUpload(t *testing.T) {
	var formBody map[string]string
	uploadCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&formBody))
		jsonOK(w)
	})
	mux.HandleFunc("/ImgUpload/UploadImage", func(w http.ResponseWriter, r *http.Request) {
		uploadCalls++
		jsonOK(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceNo)
	session.SetReason("Store Closed")

	receipt, err := submitter.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, receipt.FormSaved)
	assert.False(t, receipt.ImagesSaved)
	assert.Zero(t, uploadCalls, "No-evidence submissions must not upload images")
	assert.Equal(t, StateSubmitted, session.State)

	assert.Equal(t, "e1", formBody["element_id"])
	assert.Equal(t, "No", formBody["evidence"])
	assert.Equal(t, "1000", formBody["store_code"])
	assert.Equal(t, "t1", formBody["taskid"])
	assert.Equal(t, "Store Closed", formBody["reason"])
}

func TestSubmit_TwoPhaseOrderAndMultipartFields(t *testing.T) {
	var order []string
	var form map[string][]string
	var imageFields []string
	var reason string
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "form")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		reason = body["reason"]
		jsonOK(w)
	})
	mux.HandleFunc("/ImgUpload/UploadImage", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "upload")
		require.NoError(t, r.ParseMultipartForm(32<<20))
		form = r.MultipartForm.Value
		for i := 1; ; i++ {
			name := "image" + string(rune('0'+i))
			if len(r.MultipartForm.File[name]) == 0 {
				break
			}
			imageFields = append(imageFields, name)
		}
		jsonOK(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Static{Latitude: 12.5, Longitude: 77.625})
	session.Task = TaskRef{
		ElementID:           "e1",
		StoreCode:           "1000",
		TaskID:              "t1",
		MediaPlanID:         "mp9",
		ExecutionTemplateID: "x7",
	}
	session.SetEvidence(EvidenceYes)
	session.AddImages(context.Background(), writeTempImages(t, 3))

	receipt, err := submitter.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, receipt.FormSaved)
	assert.True(t, receipt.ImagesSaved)
	assert.Equal(t, StateSubmitted, session.State)

	require.Equal(t, []string{"form", "upload"}, order, "form metadata must be submitted before images")
	assert.Equal(t, "NA", reason, "Yes branch sends the reason placeholder")

	assert.Equal(t, "mp9", form["plan"][0])
	assert.Equal(t, "e1", form["elementid"][0])
	assert.Equal(t, "1000", form["store"][0])
	assert.Equal(t, "t1", form["task"][0])
	assert.Equal(t, "x7", form["executiontemplateid"][0])
	assert.Equal(t, "tok1", form["tokenid"][0])
	assert.Equal(t, "77.625", form["longitude"][0])
	assert.Equal(t, "12.5", form["latitude"][0])
	assert.Equal(t, []string{"image1", "image2", "image3"}, imageFields,
		"image parts are keyed by ordinal position in insertion order")
}

func TestSubmit_MissingLocationSendsZeroSentinel(t *testing.T) {
	var form map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) { jsonOK(w) })
	mux.HandleFunc("/ImgUpload/UploadImage", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		form = r.MultipartForm.Value
		jsonOK(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)
	session.AddImages(context.Background(), writeTempImages(t, 1))

	_, err := submitter.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "0", form["longitude"][0])
	assert.Equal(t, "0", form["latitude"][0])
}

func TestSubmit_FormFailureAbortsUpload(t *testing.T) {
	uploadCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "form rejected"})
	})
	mux.HandleFunc("/ImgUpload/UploadImage", func(w http.ResponseWriter, r *http.Request) {
		uploadCalls++
		jsonOK(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)
	session.AddImages(context.Background(), writeTempImages(t, 1))

	receipt, err := submitter.Submit(context.Background(), session)
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.CodeHTTPError))
	assert.False(t, receipt.FormSaved)
	assert.Zero(t, uploadCalls, "phase-1 failure must abort the whole submission")
	assert.Equal(t, StateFailed, session.State)
}

func TestSubmit_UploadFailureIsPartialSubmit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) { jsonOK(w) })
	mux.HandleFunc("/ImgUpload/UploadImage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"message": "storage unavailable"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)
	session.AddImages(context.Background(), writeTempImages(t, 2))

	receipt, err := submitter.Submit(context.Background(), session)
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.CodePartialSubmit),
		"phase-2 failure after a committed phase 1 is the named partial-submit failure")
	assert.True(t, receipt.FormSaved, "phase 1 remains committed, no compensation")
	assert.False(t, receipt.ImagesSaved)
	assert.Equal(t, StateFailed, session.State)
}

func TestSubmit_TextResponsesReinterpreted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Record Updated"))
	})
	mux.HandleFunc("/ImgUpload/UploadImage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("2 files uploaded"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)
	session.AddImages(context.Background(), writeTempImages(t, 2))

	receipt, err := submitter.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, receipt.FormSaved)
	assert.True(t, receipt.ImagesSaved)
}

func TestSubmit_TextResponseWithoutKeywordsFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/PlanDetails/FillForm", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("request logged"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	submitter, _ := newTestSubmitter(t, srv.URL)

	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceNo)
	session.SetReason("Other")

	_, err := submitter.Submit(context.Background(), session)
	require.Error(t, err)
	assert.Equal(t, StateFailed, session.State)
}
