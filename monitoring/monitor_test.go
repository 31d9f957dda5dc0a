package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/sim/timing"
)

var _ = Describe("Monitor", func() {
	var (
		engine  *timing.SerialEngine
		store   *countdown.Store
		monitor *Monitor
		router  http.Handler
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		store = countdown.NewStore(engine, countdown.WithInitial(0, 1, 5))
		monitor = NewMonitor()
		monitor.RegisterStore(store)
		monitor.RegisterEngine(engine)
		router = monitor.Router()
	})

	serve := func(method, url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, url, nil))

		return rec
	}

	decodeState := func(rec *httptest.ResponseRecorder) map[string]any {
		rsp := map[string]any{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

		return rsp
	}

	snapshotOf := func(rec *httptest.ResponseRecorder) map[string]any {
		return decodeState(rec)["snapshot"].(map[string]any)
	}

	It("should report the state", func() {
		rec := serve(http.MethodGet, "/api/state")

		Expect(rec.Code).To(Equal(http.StatusOK))
		rsp := decodeState(rec)
		Expect(rsp["name"]).To(Equal("Countdown"))
		Expect(rsp["policy"]).To(Equal("trust"))
		Expect(rsp["closed"]).To(BeFalse())
		Expect(snapshotOf(rec)).To(Equal(map[string]any{
			"mode":    "stopped",
			"hours":   0.0,
			"minutes": 1.0,
			"seconds": 5.0,
		}))
	})

	It("should start and stop the countdown", func() {
		rec := serve(http.MethodPost, "/api/start")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(snapshotOf(rec)["mode"]).To(Equal("running"))

		Expect(engine.RunUntil(2.5)).To(Succeed())

		rec = serve(http.MethodPost, "/api/stop")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(snapshotOf(rec)).To(Equal(map[string]any{
			"mode":    "stopped",
			"hours":   0.0,
			"minutes": 1.0,
			"seconds": 3.0,
		}))
	})

	It("should not apply intents sent with GET", func() {
		rec := serve(http.MethodGet, "/api/start")

		Expect(rec.Code).NotTo(Equal(http.StatusOK))
		Expect(store.Snapshot().Mode).To(Equal(countdown.Stopped))
	})

	It("should adjust a unit", func() {
		rec := serve(http.MethodPost, "/api/adjust/minute/down")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(snapshotOf(rec)["minutes"]).To(Equal(0.0))

		rec = serve(http.MethodPost, "/api/adjust/h/down")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(snapshotOf(rec)["hours"]).To(Equal(99.0))
	})

	It("should reject unknown units and directions", func() {
		Expect(serve(http.MethodPost, "/api/adjust/day/up").Code).
			To(Equal(http.StatusBadRequest))
		Expect(serve(http.MethodPost, "/api/adjust/second/sideways").Code).
			To(Equal(http.StatusBadRequest))
		Expect(store.Snapshot().Seconds).To(Equal(5))
	})

	It("should report a conflict when adjusting while running", func() {
		store = countdown.NewStore(engine,
			countdown.WithAdjustPolicy(countdown.RejectWhileRunning))
		monitor.RegisterStore(store)
		store.Start()

		rec := serve(http.MethodPost, "/api/adjust/second/up")

		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(decodeState(rec)["error"]).To(Equal("countdown is running"))
	})

	It("should reset the countdown", func() {
		store.Start()

		rec := serve(http.MethodPost, "/api/reset")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(snapshotOf(rec)).To(Equal(map[string]any{
			"mode":    "stopped",
			"hours":   0.0,
			"minutes": 0.0,
			"seconds": 0.0,
		}))
	})

	It("should refuse intents after close", func() {
		store.Close()

		Expect(serve(http.MethodPost, "/api/start").Code).
			To(Equal(http.StatusGone))
		Expect(serve(http.MethodPost, "/api/adjust/second/up").Code).
			To(Equal(http.StatusGone))
		Expect(decodeState(serve(http.MethodGet, "/api/state"))["closed"]).
			To(BeTrue())
	})

	It("should report the engine time", func() {
		store.Start()
		Expect(engine.RunUntil(1.5)).To(Succeed())

		rec := serve(http.MethodGet, "/api/now")

		Expect(rec.Body.String()).To(Equal(`{"now":1.5000000000}`))
	})

	It("should dump the store", func() {
		store.Start()

		rec := serve(http.MethodGet, "/api/store")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Countdown"))
	})

	It("should reject an invalid profile duration", func() {
		rec := serve(http.MethodGet, "/api/profile?duration=soon")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should serve the page", func() {
		rec := serve(http.MethodGet, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("<title>Countdown</title>"))
	})

	It("should fall back to a random port for reserved port numbers", func() {
		monitor.WithPortNumber(80)

		url, err := monitor.StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(monitor.Close()).To(Succeed()) }()

		rsp, err := http.Get(url + "/api/state")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
