package alarm

import (
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

// SpeakerPlayer plays a WAV file through the default audio device. The
// file is decoded once into memory at startup.
type SpeakerPlayer struct {
	buffer  *beep.Buffer
	initErr error
}

func NewSpeakerPlayer(path string, log *logrus.Logger) (*SpeakerPlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("alarm sound %s: %w", path, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("alarm sound %s: %w", path, err)
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	p := &SpeakerPlayer{buffer: buffer}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		log.WithFields(logrus.Fields{
			"sound": path,
			"error": err.Error(),
		}).Warn("Audio device unavailable, alarm will be silent")
		p.initErr = fmt.Errorf("audio device: %w", err)
	}

	return p, nil
}

func (p *SpeakerPlayer) Play(done func()) error {
	if p.initErr != nil {
		return p.initErr
	}
	speaker.Play(beep.Seq(p.buffer.Streamer(0, p.buffer.Len()), beep.Callback(done)))
	return nil
}

func (p *SpeakerPlayer) Stop() {
	if p.initErr != nil {
		return
	}
	speaker.Clear()
}
