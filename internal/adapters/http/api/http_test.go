package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/scorekeep/internal/adapters/http/api"
	"github.com/okian/scorekeep/internal/adapters/repository"
	service "github.com/okian/scorekeep/internal/app"
	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// failingStore errors on every operation, for exercising the 500 path.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Upsert(context.Context, types.Record) (repository.UpsertResult, error) {
	return repository.UpsertResult{}, errStore
}

func (failingStore) Get(context.Context, string) (types.Record, error) {
	return types.Record{}, errStore
}

func (failingStore) ScanAll(context.Context) ([]types.Record, error) { return nil, errStore }

func (failingStore) ScanByDevice(context.Context, string) ([]types.Record, error) {
	return nil, errStore
}

func (failingStore) ScanByExercise(context.Context, types.Exercise) ([]types.Record, error) {
	return nil, errStore
}

func (failingStore) Count(context.Context) int { return 0 }

func newTestMux(t *testing.T, opts ...service.Option) *http.ServeMux {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return mux
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestMux(t)

		Convey("Then the health endpoint should be accessible", func() {
			w := doJSON(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint should be accessible", func() {
			w := doJSON(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(t, w)
			So(body["totalRecords"], ShouldEqual, 0)
		})

		Convey("And an unknown route should return the JSON 404", func() {
			w := doJSON(mux, "GET", "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(t, w)["error"], ShouldEqual, "Not Found")
		})

		Convey("And OPTIONS should return 200 on any route", func() {
			for _, path := range []string{"/submit", "/scores", "/scores/device-1", "/ranking/CPU", "/anything"} {
				w := doJSON(mux, "OPTIONS", path, "")
				So(w.Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("And every response should carry the CORS headers, Origin or not", func() {
			// No Origin header on any of these requests.
			for _, path := range []string{"/scores", "/ranking/CPU", "/unknown"} {
				w := doJSON(mux, "GET", path, "")
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
				So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, "Content-Type")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "GET,POST,OPTIONS")
			}

			w := doJSON(mux, "POST", "/submit", `{"udid":"d","userName":"Alice","exerciseId":"CPU","score":10}`)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestMetricsMiddleware_PanicRecovery(t *testing.T) {
	Convey("Given a handler that panics", t, func() {
		handler := api.MetricsMiddleware(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}, "panicky")

		Convey("When the handler is invoked", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/panicky", nil))

			Convey("Then the panic becomes a generic 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(t, w)["error"], ShouldEqual, "Internal server error")
			})
		})
	})
}

func TestSubmit(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestMux(t)

		Convey("When posting a valid submission", func() {
			w := doJSON(mux, "POST", "/submit",
				`{"udid":"device-1","userName":"Alice","exerciseId":"CPU","score":72.5,"testsPassed":9,"totalTests":10}`)

			Convey("Then it should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(t, w)
				So(body["message"], ShouldEqual, "Score submitted successfully")
				So(body["userName"], ShouldEqual, "Alice")
				So(body["exerciseId"], ShouldEqual, "CPU")
				So(body["score"], ShouldEqual, 72.5)
			})

			Convey("And a lower follow-up should be rejected with a 200", func() {
				w := doJSON(mux, "POST", "/submit",
					`{"udid":"device-1","userName":"Alice","exerciseId":"CPU","score":40}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(t, w)
				So(body["message"], ShouldEqual, "Score not updated (existing score is higher or equal)")
				So(body["existingScore"], ShouldEqual, 72.5)
				So(body["submittedScore"], ShouldEqual, 40)
			})
		})

		Convey("When posting malformed JSON", func() {
			w := doJSON(mux, "POST", "/submit", `{"udid":`)

			Convey("Then it should return 400 Invalid JSON", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(t, w)["error"], ShouldEqual, "Invalid JSON")
			})
		})

		Convey("When required fields are missing", func() {
			w := doJSON(mux, "POST", "/submit", `{"userName":"Alice","exerciseId":"CPU","score":10}`)

			Convey("Then it should return 400 with the field message", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(t, w)["error"], ShouldEqual, "udid is required")
			})
		})

		Convey("When the exercise id is unknown", func() {
			w := doJSON(mux, "POST", "/submit", `{"udid":"d","userName":"Alice","exerciseId":"GPU","score":10}`)

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(t, w)["error"], ShouldStartWith, "exerciseId must be one of")
			})
		})

		Convey("When using GET instead of POST", func() {
			w := doJSON(mux, "GET", "/submit", "")

			Convey("Then it should fall through to the JSON 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the store is unavailable", func() {
			broken := newTestMux(t, service.WithStore(failingStore{}))
			w := doJSON(broken, "POST", "/submit", `{"udid":"d","userName":"Alice","exerciseId":"CPU","score":10}`)

			Convey("Then it should return a generic 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(t, w)["error"], ShouldEqual, "Internal server error")
			})
		})
	})
}

func TestScores(t *testing.T) {
	Convey("Given submissions from two users sharing devices", t, func() {
		mux := newTestMux(t)

		for _, payload := range []string{
			`{"udid":"phone-1","userName":"Bob","exerciseId":"CPU","score":50}`,
			`{"udid":"tablet-1","userName":"Bob","exerciseId":"Memory","score":30}`,
			`{"udid":"phone-2","userName":"たろう","exerciseId":"CPU","score":70}`,
		} {
			w := doJSON(mux, "POST", "/submit", payload)
			So(w.Code, ShouldEqual, http.StatusOK)
		}

		Convey("When listing all scores", func() {
			w := doJSON(mux, "GET", "/scores", "")

			Convey("Then scores should be grouped by userName", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Users []struct {
						UserName string                   `json:"userName"`
						Scores   []map[string]interface{} `json:"scores"`
					} `json:"users"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(len(body.Users), ShouldEqual, 2)
				So(body.Users[0].UserName, ShouldEqual, "Bob")
				So(len(body.Users[0].Scores), ShouldEqual, 2)
				So(body.Users[1].UserName, ShouldEqual, "たろう")
			})

			Convey("And non-ASCII names should pass through unescaped", func() {
				So(w.Body.String(), ShouldContainSubstring, "たろう")
			})
		})

		Convey("When fetching one device's scores", func() {
			w := doJSON(mux, "GET", "/scores/phone-1", "")

			Convey("Then only that device's entries appear", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(t, w)
				So(body["udid"], ShouldEqual, "phone-1")
				So(body["userName"], ShouldEqual, "Bob")
				scores := body["scores"].([]interface{})
				So(len(scores), ShouldEqual, 1)
			})
		})

		Convey("When fetching a device with no submissions", func() {
			w := doJSON(mux, "GET", "/scores/ghost", "")

			Convey("Then the result is an empty list, not an error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(t, w)
				So(body["userName"], ShouldEqual, "")
				So(len(body["scores"].([]interface{})), ShouldEqual, 0)
			})
		})

		Convey("When the device path segment is empty", func() {
			w := doJSON(mux, "GET", "/scores/", "")

			Convey("Then it should return the JSON 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRanking(t *testing.T) {
	Convey("Given CPU submissions from three devices", t, func() {
		mux := newTestMux(t)

		for _, payload := range []string{
			`{"udid":"device-a","userName":"Alice","exerciseId":"CPU","score":10}`,
			`{"udid":"device-b","userName":"Bob","exerciseId":"CPU","score":30}`,
			`{"udid":"device-c","userName":"Carol","exerciseId":"CPU","score":20}`,
		} {
			w := doJSON(mux, "POST", "/submit", payload)
			So(w.Code, ShouldEqual, http.StatusOK)
		}

		Convey("When fetching the CPU ranking", func() {
			w := doJSON(mux, "GET", "/ranking/CPU", "")

			Convey("Then entries are descending with 1-based ranks", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					ExerciseID string `json:"exerciseId"`
					Ranking    []struct {
						Rank     int     `json:"rank"`
						UserName string  `json:"userName"`
						Score    float64 `json:"score"`
					} `json:"ranking"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.ExerciseID, ShouldEqual, "CPU")
				So(len(body.Ranking), ShouldEqual, 3)
				So(body.Ranking[0].Rank, ShouldEqual, 1)
				So(body.Ranking[0].UserName, ShouldEqual, "Bob")
				So(body.Ranking[1].UserName, ShouldEqual, "Carol")
				So(body.Ranking[2].UserName, ShouldEqual, "Alice")
			})
		})

		Convey("When the exercise id matches nothing", func() {
			w := doJSON(mux, "GET", "/ranking/Sorting", "")

			Convey("Then the ranking is empty, not an error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(t, w)
				So(len(body["ranking"].([]interface{})), ShouldEqual, 0)
			})
		})

		Convey("When the exercise path segment is empty", func() {
			w := doJSON(mux, "GET", "/ranking/", "")

			Convey("Then it should return the JSON 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
