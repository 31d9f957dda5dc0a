// Package monitoring turns a countdown into a small web server so that it can
// be watched and driven from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/monitoring/web"
	"github.com/sarchlab/countdown/sim/timing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor serves the state of a countdown and accepts intents over HTTP.
type Monitor struct {
	store       *countdown.Store
	engine      timing.TimeTeller
	portNumber  int
	openBrowser bool

	lock     sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor page in the default browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterStore registers the countdown to be monitored.
func (m *Monitor) RegisterStore(s *countdown.Store) {
	m.store = s
}

// RegisterEngine registers the engine that drives the countdown.
func (m *Monitor) RegisterEngine(e timing.TimeTeller) {
	m.engine = e
}

// Router returns the request router of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/state", m.state).Methods(http.MethodGet)
	r.HandleFunc("/api/start", m.start).Methods(http.MethodPost)
	r.HandleFunc("/api/stop", m.stop).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", m.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/adjust/{unit}/{dir}", m.adjust).
		Methods(http.MethodPost)
	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/store", m.storeDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.server != nil {
		return "", errors.New("monitor already started")
	}

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("monitor: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring countdown with %s\n", url)

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panic(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	return url, nil
}

// Close shuts the server down. Closing a monitor that is not serving does
// nothing.
func (m *Monitor) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.server == nil {
		return nil
	}

	err := m.server.Close()
	m.server = nil
	m.listener = nil

	return err
}

type stateRsp struct {
	Name     string             `json:"name"`
	Snapshot countdown.Snapshot `json:"snapshot"`
	Policy   string             `json:"policy"`
	Closed   bool               `json:"closed"`
}

func (m *Monitor) writeState(w http.ResponseWriter, status int) {
	rsp := stateRsp{
		Name:     m.store.Name(),
		Snapshot: m.store.Snapshot(),
		Policy:   m.store.Policy().String(),
		Closed:   m.store.IsClosed(),
	}

	writeJSON(w, status, rsp)
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	m.writeState(w, http.StatusOK)
}

func (m *Monitor) start(w http.ResponseWriter, _ *http.Request) {
	if m.rejectClosed(w) {
		return
	}

	m.store.Start()
	m.writeState(w, http.StatusOK)
}

func (m *Monitor) stop(w http.ResponseWriter, _ *http.Request) {
	if m.rejectClosed(w) {
		return
	}

	m.store.Stop()
	m.writeState(w, http.StatusOK)
}

func (m *Monitor) reset(w http.ResponseWriter, _ *http.Request) {
	if m.rejectClosed(w) {
		return
	}

	m.store.Reset()
	m.writeState(w, http.StatusOK)
}

func (m *Monitor) adjust(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	unit, err := countdown.ParseUnit(vars["unit"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var delta int
	switch vars["dir"] {
	case "up":
		delta = 1
	case "down":
		delta = -1
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("unknown direction %q", vars["dir"]))
		return
	}

	err = m.store.Adjust(unit, delta)
	switch {
	case errors.Is(err, countdown.ErrRunning):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, countdown.ErrClosed):
		writeError(w, http.StatusGone, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		m.writeState(w, http.StatusOK)
	}
}

func (m *Monitor) rejectClosed(w http.ResponseWriter) bool {
	if !m.store.IsClosed() {
		return false
	}

	writeError(w, http.StatusGone, countdown.ErrClosed)

	return true
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	var now timing.VTimeInSec
	if m.engine != nil {
		now = m.engine.Now()
	}

	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

// storeView is the part of the store exposed by /api/store. It is a copy, so
// that serialization does not race with the tick goroutine.
type storeView struct {
	Name         string
	Policy       string
	Closed       bool
	NumHooks     int
	PendingTicks int
	Snapshot     countdown.Snapshot
}

func (m *Monitor) storeDetails(w http.ResponseWriter, _ *http.Request) {
	view := &storeView{
		Name:         m.store.Name(),
		Policy:       m.store.Policy().String(),
		Closed:       m.store.IsClosed(),
		NumHooks:     m.store.NumHooks(),
		PendingTicks: m.store.PendingTicks(),
		Snapshot:     m.store.Snapshot(),
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(view)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second
	if d := r.URL.Query().Get("duration"); d != "" {
		parsed, err := time.ParseDuration(d)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest,
				fmt.Errorf("invalid duration %q", d))
			return
		}

		duration = parsed
	}

	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	time.Sleep(duration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, http.StatusOK, prof)
}

type errorRsp struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorRsp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
