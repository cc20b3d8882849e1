package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"churnpipe/internal/logging"
	"churnpipe/internal/telemetry"
	"churnpipe/tracking"
)

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int16    `yaml:"required_acks"` // 0,1,-1
}

type driver struct {
	cfg Config
	p   sarama.AsyncProducer
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-tracking: want Config, got %T", c)
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	var err error
	d.p, err = sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	go d.drainErrors()
	return nil
}

// drainErrors keeps the async producer from blocking. Failures are counted
// and logged; the run that produced the report has already succeeded.
func (d *driver) drainErrors() {
	log := logging.With("tracking")
	for perr := range d.p.Errors() {
		telemetry.TrackingFailures.Inc()
		log.Warn("run report not delivered", "topic", perr.Msg.Topic, "err", perr.Err)
	}
}

func (d *driver) Publish(r tracking.Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	d.p.Input() <- &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Key:   sarama.StringEncoder(r.RunID),
		Value: sarama.ByteEncoder(raw),
	}
	return nil
}

func (d *driver) Close() error {
	if d.p == nil {
		return nil
	}
	return d.p.Close()
}

func init() {
	tracking.Register("kafka", func() tracking.Publisher { return &driver{} })
}
