package stdout

import (
	"encoding/json"
	"fmt"

	"churnpipe/tracking"
)

type Config struct{}

type driver struct{}

func (d *driver) Configure(raw any) error {
	if _, ok := raw.(Config); !ok {
		return fmt.Errorf("stdout-tracking: expected Config, got %T", raw)
	}
	return nil
}

func (d *driver) Publish(r tracking.Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func (d *driver) Close() error { return nil }

func init() {
	tracking.Register("stdout", func() tracking.Publisher { return &driver{} })
}
