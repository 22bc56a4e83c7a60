package daemon

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/upch-biolab/phmon/pkg/acquire"
	"github.com/upch-biolab/phmon/pkg/calib"
	"github.com/upch-biolab/phmon/pkg/config"
	"github.com/upch-biolab/phmon/pkg/stream"
	"github.com/upch-biolab/phmon/pkg/version"
)

// SampleView is the JSON shape of a sample. Undefined pH values become null,
// since NaN is not representable in JSON; consumers render null as a gap.
type SampleView struct {
	TRel       float64  `json:"t_rel"`
	Voltage    float64  `json:"voltage"`
	PHTwoPoint *float64 `json:"ph_two_point"`
	PHNernst   *float64 `json:"ph_nernst"`
}

func sampleView(s stream.Sample) SampleView {
	v := SampleView{TRel: s.TRel, Voltage: s.Voltage}
	if !calib.IsUndefined(s.PHTwoPoint) {
		ph := s.PHTwoPoint
		v.PHTwoPoint = &ph
	}
	if !calib.IsUndefined(s.PHNernst) {
		ph := s.PHNernst
		v.PHNernst = &ph
	}
	return v
}

func sampleViews(samples []stream.Sample) []SampleView {
	out := make([]SampleView, len(samples))
	for i, s := range samples {
		out[i] = sampleView(s)
	}
	return out
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getTwoPoint(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.TwoPoint())
}

func setTwoPoint(c *gin.Context) {
	var p calib.TwoPointParams
	if err := c.BindJSON(&p); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if p.Degenerate() {
		// Accepted, but the two-point series will read as undefined until
		// the points are spread apart.
		logrus.WithFields(logrus.Fields{
			"v1": p.V1,
			"v2": p.V2,
		}).Warn("degenerate two-point calibration: V1 == V2")
	}

	conf.SetTwoPoint(p)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	acq.session.SetTwoPoint(p)

	logrus.Infof("set two-point calibration to pH1=%.2f@%.3fV pH2=%.2f@%.3fV", p.PH1, p.V1, p.PH2, p.V2)

	msg := "two-point calibration updated"
	if p.Degenerate() {
		msg += " (degenerate: V1 == V2, series will be undefined)"
	}
	c.IndentedJSON(http.StatusCreated, msg)
}

func getNernst(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.Nernst())
}

func setNernst(c *gin.Context) {
	var p calib.NernstParams
	if err := c.BindJSON(&p); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if p.Sign != 1 && p.Sign != -1 {
		err := fmt.Errorf("polarity sign must be +1 or -1, got %d", p.Sign)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetNernst(p)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	acq.session.SetNernst(p)

	logrus.Infof("set Nernst calibration to E0=%.3fV T=%.1f°C sign=%+d", p.E0, p.TemperatureC, p.Sign)

	c.IndentedJSON(http.StatusCreated, "Nernst calibration updated")
}

func getPorts(c *gin.Context) {
	ports, err := acquire.ListPorts()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, ports)
}

// AcquisitionStatus is the GET /acquire response.
type AcquisitionStatus struct {
	Running   bool   `json:"running"`
	Source    string `json:"source,omitempty"`
	LastError string `json:"lastError,omitempty"`
	Samples   int    `json:"samples"`
	Capacity  int    `json:"capacity"`
}

func getAcquisition(c *gin.Context) {
	running, source, lastErr := acq.status()
	c.IndentedJSON(http.StatusOK, AcquisitionStatus{
		Running:   running,
		Source:    source,
		LastError: lastErr,
		Samples:   acq.session.Buffer().Len(),
		Capacity:  acq.session.Buffer().Capacity(),
	})
}

// StartRequest is the PUT /acquire body. Omitted fields fall back to the
// configured defaults.
type StartRequest struct {
	Source string `json:"source"`
	Port   string `json:"port,omitempty"`
	Baud   int    `json:"baud,omitempty"`
	Device string `json:"device,omitempty"`
}

func startAcquisition(c *gin.Context) {
	var req StartRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if req.Source == "" {
		req.Source = SourceSerial
	}
	if req.Port == "" {
		req.Port = conf.SerialPort()
	}
	if req.Baud == 0 {
		req.Baud = conf.BaudRate()
	}
	if req.Device == "" {
		req.Device = conf.BLEDevice()
	}
	if req.Source == SourceSerial && req.Port == "" {
		err := fmt.Errorf("no serial port given and none configured")
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	err := acq.start(req.Source, req.Port, req.Baud, req.Device, conf.ReadTimeout(), conf.DrainInterval())
	if err != nil {
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("acquisition started from %s source", req.Source))
}

func stopAcquisition(c *gin.Context) {
	if err := acq.stop(); err != nil {
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "acquisition stopped, collected samples retained")
}

func resetBuffer(c *gin.Context) {
	acq.session.Reset()
	logrus.Info("sample buffer reset")
	c.IndentedJSON(http.StatusOK, "buffer cleared, time anchor reset")
}

func getLatestSample(c *gin.Context) {
	s, ok := acq.session.Buffer().Last()
	if !ok {
		c.IndentedJSON(http.StatusNotFound, "no samples yet")
		return
	}
	c.IndentedJSON(http.StatusOK, sampleView(s))
}

func getWindow(c *gin.Context) {
	n := conf.WindowSize()
	if q := c.Query("n"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed <= 0 {
			c.IndentedJSON(http.StatusBadRequest, fmt.Sprintf("invalid window size %q", q))
			return
		}
		n = parsed
	}
	c.IndentedJSON(http.StatusOK, sampleViews(acq.session.Buffer().Window(n)))
}

func exportCSV(c *gin.Context) {
	samples := acq.session.Buffer().Export()
	if q := c.Query("window"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed <= 0 {
			c.IndentedJSON(http.StatusBadRequest, fmt.Sprintf("invalid window size %q", q))
			return
		}
		samples = acq.session.Buffer().Window(parsed)
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ph_history.csv"`)
	c.Status(http.StatusOK)
	if err := stream.WriteCSV(c.Writer, samples); err != nil {
		logrus.Errorf("CSV export failed: %v", err)
	}
}

func streamEvents(c *gin.Context) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, map[string]string{
		"version":   version.Version,
		"gitCommit": version.GitCommit,
	})
}
