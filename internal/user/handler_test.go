package user_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/user"
	userPostgres "github.com/frahmantamala/employee-management/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Errors []internal.ValidationError `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

var _ = Describe("User Handler Integration", func() {
	var (
		db      *gorm.DB
		router  *chi.Mux
		sender  *RecordingSender
		slogger *slog.Logger
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			switch b := body.(type) {
			case string:
				buf.WriteString(b)
			default:
				Expect(json.NewEncoder(&buf).Encode(b)).To(Succeed())
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder, v interface{}) {
		Expect(json.NewDecoder(w.Body).Decode(v)).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		clock := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
		sender = &RecordingSender{}
		dispatcher := notification.NewDispatcher(sender, notification.DefaultSettings(), slogger)
		service := user.NewService(userPostgres.NewUserRepository(db), dispatcher, slogger,
			user.WithClock(func() time.Time { return clock }))
		handler := user.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Route("/users", func(r chi.Router) {
			r.Post("/", handler.CreateUser)
			r.Get("/", handler.ListUsers)
			r.Get("/{id}", handler.GetUser)
			r.Put("/{id}", handler.UpdateUser)
			r.Delete("/{id}", handler.DeleteUser)
		})
	})

	createAnn := func() user.UserResponse {
		w := do(http.MethodPost, "/users", map[string]interface{}{
			"firstName":  "Ann",
			"lastName":   "Lee",
			"email":      "ann@x.com",
			"department": "Eng",
			"role":       "EMPLOYEE",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp user.UserResponse
		decode(w, &resp)
		return resp
	}

	It("should create a user and return 201", func() {
		resp := createAnn()

		Expect(resp.ID).To(BeNumerically(">", 0))
		Expect(resp.Active).To(BeTrue())
		Expect(resp.Role).To(Equal(user.RoleEmployee))
		Expect(resp.PhoneNumber).To(BeNil())
		Expect(sender.Sent()).To(HaveLen(2))
	})

	It("should serialize timestamps as yyyy-MM-dd HH:mm:ss", func() {
		resp := createAnn()

		w := do(http.MethodGet, "/users/1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var raw map[string]interface{}
		decode(w, &raw)
		Expect(raw["createdAt"]).To(Equal("2024-03-01 09:30:00"))
		Expect(raw["updatedAt"]).To(Equal("2024-03-01 09:30:00"))
		Expect(raw["id"]).To(BeNumerically("==", resp.ID))
	})

	It("should return 400 with field details for invalid input", func() {
		w := do(http.MethodPost, "/users", map[string]interface{}{
			"firstName": "Ann",
			"email":     "ann@x.com",
			"role":      "EMPLOYEE",
		})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var body errorBody
		decode(w, &body)
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeValidationFailed)))

		fields := make([]string, 0, len(body.Error.Details.Errors))
		for _, e := range body.Error.Details.Errors {
			fields = append(fields, e.Field)
		}
		Expect(fields).To(ConsistOf("lastName", "department"))
		Expect(sender.Sent()).To(BeEmpty())
	})

	It("should return 400 for a malformed body", func() {
		w := do(http.MethodPost, "/users", "{not json")

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var body errorBody
		decode(w, &body)
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeInvalidBody)))
	})

	It("should return 400 for a non numeric id", func() {
		w := do(http.MethodGet, "/users/abc", nil)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var body errorBody
		decode(w, &body)
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeInvalidID)))
	})

	It("should return 404 for a missing user", func() {
		w := do(http.MethodGet, "/users/404", nil)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		var body errorBody
		decode(w, &body)
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeUserNotFound)))
		Expect(body.Error.Message).To(Equal("User not found with id: 404"))
	})

	It("should list users as an empty array when there are none", func() {
		w := do(http.MethodGet, "/users", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`[]`))
	})

	It("should update a user and notify about the changes", func() {
		createAnn()
		sender.Reset()

		w := do(http.MethodPut, "/users/1", map[string]interface{}{
			"firstName":  "Ann",
			"lastName":   "Lee",
			"email":      "ann@x.com",
			"department": "Sales",
			"role":       "EMPLOYEE",
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp user.UserResponse
		decode(w, &resp)
		Expect(resp.Department).To(Equal("Sales"))
		Expect(resp.Active).To(BeTrue())

		sent := sender.Sent()
		Expect(sent).To(HaveLen(2))
		Expect(sent[0].Data.ChangedFields).To(Equal([]string{"Department changed from 'Eng' to 'Sales'"}))
	})

	It("should reactivate a user when a replacement omits active", func() {
		createAnn()
		body := map[string]interface{}{
			"firstName":  "Ann",
			"lastName":   "Lee",
			"email":      "ann@x.com",
			"department": "Eng",
			"role":       "EMPLOYEE",
			"active":     false,
		}
		Expect(do(http.MethodPut, "/users/1", body).Code).To(Equal(http.StatusOK))
		sender.Reset()

		delete(body, "active")
		w := do(http.MethodPut, "/users/1", body)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp user.UserResponse
		decode(w, &resp)
		Expect(resp.Active).To(BeTrue())

		sent := sender.Sent()
		Expect(sent).To(HaveLen(2))
		Expect(sent[0].Data.ChangedFields).To(Equal([]string{"Status changed from 'Inactive' to 'Active'"}))
	})

	It("should delete a user and return the confirmation message", func() {
		createAnn()
		sender.Reset()

		w := do(http.MethodDelete, "/users/1", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp user.DeleteResponse
		decode(w, &resp)
		Expect(resp.Message).To(Equal("User with ID 1 has been permanently deleted"))
		Expect(sender.Sent()).To(HaveLen(1))

		Expect(do(http.MethodGet, "/users/1", nil).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodDelete, "/users/1", nil).Code).To(Equal(http.StatusNotFound))
	})
})
