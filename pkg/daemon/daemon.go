package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/upch-biolab/phmon/pkg/config"
	"github.com/upch-biolab/phmon/pkg/events"
	"github.com/upch-biolab/phmon/pkg/stream"
)

var (
	conf config.Config
	acq  *acquisition
	hub  *events.EventHub
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/calibration/two-point", getTwoPoint)
	router.PUT("/calibration/two-point", setTwoPoint)
	router.GET("/calibration/nernst", getNernst)
	router.PUT("/calibration/nernst", setNernst)
	router.GET("/ports", getPorts)
	router.GET("/acquire", getAcquisition)
	router.PUT("/acquire", startAcquisition)
	router.DELETE("/acquire", stopAcquisition)
	router.POST("/reset", resetBuffer)
	router.GET("/samples/latest", getLatestSample)
	router.GET("/samples/window", getWindow)
	router.GET("/samples/export", exportCSV)
	router.GET("/events", streamEvents)
	router.GET("/version", getVersion)

	return router
}

// reloadConfig re-reads the config file and applies the calibration to the
// live session, so samples derived after a reload use the new parameters.
func reloadConfig() error {
	if err := conf.Load(); err != nil {
		return err
	}
	acq.session.SetTwoPoint(conf.TwoPoint())
	acq.session.SetNernst(conf.Nernst())
	return nil
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	hub = events.NewEventHub()
	session := stream.NewSession(conf.BufferCapacity(), conf.TwoPoint(), conf.Nernst())
	acq = newAcquisition(session, hub)

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := reloadConfig()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	if running, _, _ := acq.status(); running {
		logrus.Info("stopping acquisition")
		if err := acq.stop(); err != nil {
			logrus.Errorf("failed to stop acquisition: %v", err)
		}
	}

	hub.Close()

	logrus.Info("exiting")
	return nil
}
