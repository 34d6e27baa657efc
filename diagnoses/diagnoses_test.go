package diagnoses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jane4246/coffee-advisory/auth"
	"github.com/jane4246/coffee-advisory/classifier"
	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/middleware"
	"github.com/jane4246/coffee-advisory/models"
	"github.com/jane4246/coffee-advisory/mq"
	"github.com/jane4246/coffee-advisory/objects"
	"github.com/jane4246/coffee-advisory/predict"
	"github.com/jarcoal/httpmock"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *httprouter.Router {
	t.Helper()
	prevStore, prevAnalyzer := db.Store, analyzer
	db.Store = db.NewMemStorage()
	analyzer = &classifier.Analyzer{}
	t.Cleanup(func() { db.Store, analyzer = prevStore, prevAnalyzer })

	router := httprouter.New()
	router.GET("/api/diagnoses", GetDiagnoses)
	router.GET("/api/diagnoses/:id", GetDiagnosis)
	router.POST("/api/diagnoses", middleware.OptionalAuth(CreateDiagnosis))
	return router
}

func postDiagnosis(t *testing.T, router http.Handler, body string, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/diagnoses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateDiagnosis_TextRules(t *testing.T) {
	router := setup(t)

	cases := []struct {
		symptoms, disease, severity string
	}{
		{"Leaves show yellow-orange powder underneath", "Coffee Leaf Rust (Hemileia vastatrix)", models.SeverityHigh},
		{"rust coloured patches", "Coffee Leaf Rust (Hemileia vastatrix)", models.SeverityHigh},
		{"the whole tree started to wilt", "Coffee Wilt Disease (Fusarium xylarioides)", models.SeverityHigh},
		{"small holes in cherries", "Coffee Berry Borer (Hypothenemus hampei)", models.SeverityMedium},
		{"nothing obvious", "Unidentified Condition", models.SeverityMedium},
	}
	for _, tc := range cases {
		rec := postDiagnosis(t, router, `{"symptoms":"`+tc.symptoms+`","diagnosisMethod":"text"}`, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		d := decode[models.Diagnosis](t, rec)
		assert.Equal(t, tc.disease, d.DiseaseName, tc.symptoms)
		assert.Equal(t, tc.severity, d.Severity, tc.symptoms)
		assert.NotEmpty(t, d.ID)
		assert.False(t, d.CreatedAt.IsZero())
		assert.Nil(t, d.UserID)
		require.NotNil(t, d.AnalysisNotes)
		assert.True(t, strings.HasPrefix(*d.AnalysisNotes, "Text Analysis:"))
	}
}

func TestCreateDiagnosis_FallbackConfidence(t *testing.T) {
	router := setup(t)

	rec := postDiagnosis(t, router, `{"symptoms":"the plant looks unhappy","diagnosisMethod":"voice"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[models.Diagnosis](t, rec)
	assert.Equal(t, "Unidentified Condition", d.DiseaseName)
	require.NotNil(t, d.Confidence)
	assert.Equal(t, "0.3", *d.Confidence)
}

func TestCreateDiagnosis_Validation(t *testing.T) {
	router := setup(t)

	cases := map[string]struct {
		body  string
		field string
	}{
		"missing method":      {`{"symptoms":"yellow"}`, "diagnosisMethod"},
		"unknown method":      {`{"symptoms":"yellow","diagnosisMethod":"fax"}`, "diagnosisMethod"},
		"text needs symptoms": {`{"symptoms":"   ","diagnosisMethod":"text"}`, "symptoms"},
		"image needs input":   {`{"diagnosisMethod":"image"}`, "imageUrl"},
		"image url on text":   {`{"symptoms":"yellow","diagnosisMethod":"text","imageUrl":"/objects/uploads/a"}`, "imageUrl"},
		"voice url on image":  {`{"diagnosisMethod":"image","imageUrl":"/objects/uploads/a","voiceRecordingUrl":"/v.webm"}`, "voiceRecordingUrl"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := postDiagnosis(t, router, tc.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			out := decode[struct {
				Error   string            `json:"error"`
				Details map[string]string `json:"details"`
			}](t, rec)
			assert.Equal(t, "Invalid diagnosis data", out.Error)
			assert.Contains(t, out.Details, tc.field)
		})
	}

	rec := postDiagnosis(t, router, `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid diagnosis data"}`, rec.Body.String())

	list, err := db.Store.GetDiagnoses(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list, "rejected reports are not stored")
}

func TestCreateDiagnosis_ImageWithoutPredictor(t *testing.T) {
	router := setup(t)
	analyzer = &classifier.Analyzer{Pick: func(int) int { return 2 }}

	rec := postDiagnosis(t, router, `{"symptoms":"","diagnosisMethod":"image","imageUrl":"/objects/uploads/abc"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[models.Diagnosis](t, rec)
	assert.Equal(t, "Coffee Bacterial Blight", d.DiseaseName)
	require.NotNil(t, d.ImageURL)
	assert.Equal(t, "/objects/uploads/abc", *d.ImageURL)
	assert.Nil(t, d.VoiceRecordingURL)
	require.NotNil(t, d.AnalysisNotes)
	assert.Contains(t, *d.AnalysisNotes, "AI Image Analysis:")
}

func configureObjects(t *testing.T) *objects.DiskStore {
	t.Helper()
	ds, err := objects.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	objects.Configure(ds, objects.NewSigner("test", time.Minute), "http://farm.test", 0)
	return ds
}

func TestCreateDiagnosis_ImageWithPredictor(t *testing.T) {
	router := setup(t)
	ds := configureObjects(t)
	_, err := ds.Put(context.Background(), "uploads/leaf-1", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder(http.MethodPost, "http://predictor.test/predict",
		func(req *http.Request) (*http.Response, error) {
			f, _, err := req.FormFile("image")
			if err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "no image"), nil
			}
			defer f.Close()
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"prediction": "coffee berry borer", "confidence": 0.912})
		})
	Configure(predict.New("http://predictor.test", 5*time.Second))

	rec := postDiagnosis(t, router, `{"diagnosisMethod":"image","imageUrl":"/objects/uploads/leaf-1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[models.Diagnosis](t, rec)
	assert.Equal(t, "Coffee Berry Borer (Hypothenemus hampei)", d.DiseaseName)
	require.NotNil(t, d.Confidence)
	assert.Equal(t, "0.91", *d.Confidence)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// an image hosted elsewhere never reaches the predictor
	rec = postDiagnosis(t, router, `{"diagnosisMethod":"image","imageUrl":"https://cdn.example/leaf.jpg"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCreateDiagnosis_AbsoluteUploadURLReachesPredictor(t *testing.T) {
	router := setup(t)
	ds, err := objects.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	objects.Configure(ds, objects.NewSigner("test", time.Minute), "", 0)

	id := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	_, err = ds.Put(context.Background(), "uploads/"+id, strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder(http.MethodPost, "http://predictor.test/predict",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"prediction": "coffee berry borer", "confidence": 0.8}))
	Configure(predict.New("http://predictor.test", 5*time.Second))

	// httptest requests are addressed to example.com
	body := `{"diagnosisMethod":"image","imageUrl":"http://example.com/api/objects/uploads/` + id + `?token=t"}`
	rec := postDiagnosis(t, router, body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[models.Diagnosis](t, rec)
	assert.Equal(t, "Coffee Berry Borer (Hypothenemus hampei)", d.DiseaseName)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCreateDiagnosis_PredictorFailureIs500(t *testing.T) {
	router := setup(t)
	ds := configureObjects(t)
	_, err := ds.Put(context.Background(), "uploads/leaf-2", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder(http.MethodPost, "http://predictor.test/predict",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "warming up"))
	Configure(predict.New("http://predictor.test", 5*time.Second))

	rec := postDiagnosis(t, router, `{"diagnosisMethod":"image","imageUrl":"/objects/uploads/leaf-2"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to create diagnosis"}`, rec.Body.String())
}

func TestGetDiagnoses_NewestFirstAndUserFilter(t *testing.T) {
	router := setup(t)
	token, err := auth.IssueToken("u-9", "akinyi", time.Now())
	require.NoError(t, err)

	var ids []string
	for i, body := range []string{
		`{"symptoms":"yellow","diagnosisMethod":"text"}`,
		`{"symptoms":"wilt","diagnosisMethod":"text"}`,
		`{"symptoms":"holes","diagnosisMethod":"text"}`,
	} {
		tok := ""
		if i == 1 {
			tok = token
		}
		rec := postDiagnosis(t, router, body, tok)
		require.Equal(t, http.StatusOK, rec.Code)
		ids = append(ids, decode[models.Diagnosis](t, rec).ID)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnoses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Diagnosis](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnoses?userId=u-9", nil))
	mine := decode[[]models.Diagnosis](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, ids[1], mine[0].ID)
	require.NotNil(t, mine[0].UserID)
	assert.Equal(t, "u-9", *mine[0].UserID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnoses/"+ids[0], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ids[0], decode[models.Diagnosis](t, rec).ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnoses/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDiagnoses_EmptyIsArray(t *testing.T) {
	router := setup(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnoses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateDiagnosis_EmitsEvent(t *testing.T) {
	router := setup(t)
	var got []mq.Event
	unsub := mq.Subscribe(func(e mq.Event) {
		if e.Name == EventCreated {
			got = append(got, e)
		}
	})
	t.Cleanup(unsub)

	rec := postDiagnosis(t, router, `{"symptoms":"yellow leaves","diagnosisMethod":"text"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[models.Diagnosis](t, rec)

	require.Len(t, got, 1)
	assert.Equal(t, d.ID, got[0].Index.EntityId)
	assert.Equal(t, "diagnosis", got[0].Index.EntityType)
}
