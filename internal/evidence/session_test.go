package evidence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fieldtrace/evidence-cli/internal/geo"
	"github.com/fieldtrace/evidence-cli/pkg/apierrors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(maxImages int, locator geo.Locator) *Session {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewSession(TaskRef{ElementID: "e1", StoreCode: "1000", TaskID: "t1"},
		maxImages, 15*time.Second, locator, logger)
}

func imageBatch(n int) []ImageRef {
	images := make([]ImageRef, n)
	for i := range images {
		images[i] = ImageRef{URI: fmt.Sprintf("/tmp/img-%d.jpg", i), FileName: fmt.Sprintf("img-%d.jpg", i)}
	}
	return images
}

func TestAddImages_ClampPreservesOrder(t *testing.T) {
	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)

	accepted, dropped := session.AddImages(context.Background(), imageBatch(8))
	assert.Equal(t, 5, accepted)
	assert.Equal(t, 3, dropped)
	require.Len(t, session.Images, 5)

	// The first maxImages items survive in their original relative order
	for i, img := range session.Images {
		assert.Equal(t, fmt.Sprintf("img-%d.jpg", i), img.FileName)
	}
}

func TestAddImages_AccumulatesAcrossPicks(t *testing.T) {
	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)

	accepted, dropped := session.AddImages(context.Background(), imageBatch(3))
	assert.Equal(t, 3, accepted)
	assert.Zero(t, dropped)

	accepted, dropped = session.AddImages(context.Background(), imageBatch(4))
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 2, dropped)
	assert.Len(t, session.Images, 5)
	assert.Equal(t, StateHasImages, session.State)
}

func TestAddImages_StampsCaptureTimeAndLocation(t *testing.T) {
	session := newTestSession(5, geo.Static{Latitude: 12.5, Longitude: 77.6})
	session.SetEvidence(EvidenceYes)

	session.AddImages(context.Background(), imageBatch(1))

	assert.False(t, session.CapturedAt.IsZero())
	require.NotNil(t, session.Location)
	assert.Equal(t, 12.5, session.Location.Latitude)
	assert.Equal(t, 77.6, session.Location.Longitude)
}

func TestAddImages_LocationUnavailableIsBestEffort(t *testing.T) {
	session := newTestSession(5, geo.Unavailable{})
	session.SetEvidence(EvidenceYes)

	session.AddImages(context.Background(), imageBatch(1))

	assert.False(t, session.CapturedAt.IsZero())
	assert.Nil(t, session.Location, "missing location is not an error")
}

func TestSetEvidence_BranchesAreMutuallyExclusive(t *testing.T) {
	session := newTestSession(5, geo.Unavailable{})

	session.SetEvidence(EvidenceYes)
	session.AddImages(context.Background(), imageBatch(2))

	session.SetEvidence(EvidenceNo)
	assert.Empty(t, session.Images, "switching to No discards the image branch")

	session.SetReason("Store Closed")
	session.SetEvidence(EvidenceYes)
	assert.Empty(t, session.Reason, "switching to Yes discards the reason branch")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *Session)
		wantErr bool
	}{
		{"no evidence answer", func(s *Session) {}, true},
		{"yes without images", func(s *Session) { s.SetEvidence(EvidenceYes) }, true},
		{"yes with image", func(s *Session) {
			s.SetEvidence(EvidenceYes)
			s.AddImages(context.Background(), imageBatch(1))
		}, false},
		{"no without reason", func(s *Session) { s.SetEvidence(EvidenceNo) }, true},
		{"no with reason", func(s *Session) {
			s.SetEvidence(EvidenceNo)
			s.SetReason("Product Missing")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newTestSession(5, geo.Unavailable{})
			tt.prepare(session)
			err := session.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apierrors.IsCode(err, apierrors.CodeValidationError))
			} else {
				require.NoError(t, err)
			}
		})
	}
}
