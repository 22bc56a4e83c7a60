package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/upch-biolab/phmon/pkg/calib"
	"github.com/upch-biolab/phmon/pkg/config"
	"github.com/upch-biolab/phmon/pkg/daemon"
)

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}
	conf := &config.RawFileConfig{}
	if err := json.Unmarshal([]byte(ret), conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return conf, nil
}

func (c *Client) GetTwoPoint() (calib.TwoPointParams, error) {
	var p calib.TwoPointParams
	ret, err := c.Get("/calibration/two-point")
	if err != nil {
		return p, pkgerrors.Wrapf(err, "failed to get two-point calibration")
	}
	err = json.Unmarshal([]byte(ret), &p)
	return p, err
}

func (c *Client) SetTwoPoint(p calib.TwoPointParams) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return c.Put("/calibration/two-point", string(payload))
}

func (c *Client) GetNernst() (calib.NernstParams, error) {
	var p calib.NernstParams
	ret, err := c.Get("/calibration/nernst")
	if err != nil {
		return p, pkgerrors.Wrapf(err, "failed to get Nernst calibration")
	}
	err = json.Unmarshal([]byte(ret), &p)
	return p, err
}

func (c *Client) SetNernst(p calib.NernstParams) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return c.Put("/calibration/nernst", string(payload))
}

func (c *Client) GetPorts() ([]string, error) {
	ret, err := c.Get("/ports")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list serial ports")
	}
	var ports []string
	err = json.Unmarshal([]byte(ret), &ports)
	return ports, err
}

func (c *Client) GetAcquisition() (*daemon.AcquisitionStatus, error) {
	ret, err := c.Get("/acquire")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get acquisition status")
	}
	status := &daemon.AcquisitionStatus{}
	if err := json.Unmarshal([]byte(ret), status); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal acquisition status")
	}
	return status, nil
}

func (c *Client) StartAcquisition(req daemon.StartRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return c.Put("/acquire", string(payload))
}

func (c *Client) StopAcquisition() (string, error) {
	return c.Delete("/acquire")
}

func (c *Client) ResetBuffer() (string, error) {
	return c.Post("/reset", "")
}

func (c *Client) GetLatestSample() (*daemon.SampleView, error) {
	ret, err := c.Get("/samples/latest")
	if err != nil {
		return nil, err
	}
	s := &daemon.SampleView{}
	if err := json.Unmarshal([]byte(ret), s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal sample")
	}
	return s, nil
}

func (c *Client) GetWindow(n int) ([]daemon.SampleView, error) {
	path := "/samples/window"
	if n > 0 {
		path += "?n=" + strconv.Itoa(n)
	}
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get sample window")
	}
	var samples []daemon.SampleView
	err = json.Unmarshal([]byte(ret), &samples)
	return samples, err
}

// ExportCSV returns the retained sample history as CSV text, or the last n
// samples when n > 0.
func (c *Client) ExportCSV(n int) (string, error) {
	path := "/samples/export"
	if n > 0 {
		path += "?window=" + strconv.Itoa(n)
	}
	ret, err := c.Get(path)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to export samples")
	}
	return ret, nil
}

func (c *Client) GetVersion() (map[string]string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return nil, err
	}
	v := map[string]string{}
	err = json.Unmarshal([]byte(ret), &v)
	return v, err
}
