package tutor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/metrics"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/speech"
)

// Responder produces a reply for a fully composed prompt.
type Responder interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip speech.Clip, languageTag string) (string, error)
}

// Speaker reads a reply aloud. It must not block.
type Speaker interface {
	Speak(owner uuid.UUID, text, languageTag string)
}

// Notifier is told about every transcript change.
type Notifier interface {
	TranscriptChanged(t Transcript)
}

const (
	channelText  = "text"
	channelVoice = "voice"
	channelProxy = "proxy"

	defaultChatTimeout       = 25 * time.Second
	defaultTranscribeTimeout = 15 * time.Second
)

// Options bounds the pipeline's outbound waits.
type Options struct {
	ChatTimeout       time.Duration
	TranscribeTimeout time.Duration
}

// Pipeline moves learner input through the language model and back into
// the transcript. Every failure becomes an apology message; errors are
// returned only so callers can log them.
type Pipeline struct {
	responder         Responder
	transcriber       Transcriber
	speaker           Speaker
	notifier          Notifier
	chatTimeout       time.Duration
	transcribeTimeout time.Duration
	logger            zerolog.Logger
}

// NewPipeline wires a pipeline. speaker and notifier may be nil.
func NewPipeline(responder Responder, transcriber Transcriber, speaker Speaker, notifier Notifier, opts Options, logger zerolog.Logger) *Pipeline {
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = defaultChatTimeout
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = defaultTranscribeTimeout
	}
	return &Pipeline{
		responder:         responder,
		transcriber:       transcriber,
		speaker:           speaker,
		notifier:          notifier,
		chatTimeout:       opts.ChatTimeout,
		transcribeTimeout: opts.TranscribeTimeout,
		logger:            logger.With().Str("component", "tutor_pipeline").Logger(),
	}
}

// SendText sends typed text. A call made while another request is pending
// is ignored (Outcome.Accepted is false).
func (p *Pipeline) SendText(ctx context.Context, conv *Conversation, text string, lang preferences.Language) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{State: conv.State()}, ErrEmptyMessage
	}

	reqCtx, gen, ok := conv.begin(ctx, text, p.chatTimeout)
	if !ok {
		metrics.TutorRequests.WithLabelValues(channelText, "busy").Inc()
		return Outcome{State: StatePending}, nil
	}
	p.notify(conv)

	return p.respond(reqCtx, conv, gen, text, lang, channelText)
}

// SendVoice transcribes clip and forwards the text as a voice message. The
// responder is never called if transcription fails.
func (p *Pipeline) SendVoice(ctx context.Context, conv *Conversation, clip speech.Clip, lang preferences.Language) (Outcome, error) {
	if len(clip.Data) == 0 {
		return Outcome{State: conv.State()}, ErrEmptyClip
	}

	reqCtx, gen, ok := conv.begin(ctx, VoicePrefix+phrasesFor(lang).processing, p.transcribeTimeout+p.chatTimeout)
	if !ok {
		metrics.TutorRequests.WithLabelValues(channelVoice, "busy").Inc()
		return Outcome{State: StatePending}, nil
	}
	p.notify(conv)

	start := time.Now()
	sttCtx, cancel := context.WithTimeout(reqCtx, p.transcribeTimeout)
	text, err := p.transcriber.Transcribe(sttCtx, clip, lang.SpeechTag())
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("empty transcript")
	}
	if err != nil && errors.Is(sttCtx.Err(), context.DeadlineExceeded) {
		err = &TimeoutError{After: p.transcribeTimeout}
	}
	cancel()

	if err != nil {
		terr := &TranscriptionError{Err: err}
		conv.dropUser(gen)
		return p.settle(conv, gen, assistantMessage(TranscriptionApology(lang)), StateFailed, terr, lang, channelVoice, start)
	}

	spoken := VoicePrefix + text
	if !conv.rewriteUser(gen, spoken) {
		metrics.TutorRequests.WithLabelValues(channelVoice, "dropped").Inc()
		p.logger.Debug().
			Str("learner_id", conv.Learner().String()).
			Msg("transcript dropped after clear")
		return Outcome{Accepted: true, Dropped: true, State: conv.State()}, nil
	}
	p.notify(conv)

	return p.respond(reqCtx, conv, gen, spoken, lang, channelVoice)
}

func (p *Pipeline) respond(ctx context.Context, conv *Conversation, gen uint64, text string, lang preferences.Language, channel string) (Outcome, error) {
	start := time.Now()
	reply, err := p.responder.Generate(ctx, ComposePrompt(Exchange{RequestText: text, Language: lang}))
	reply = strings.TrimSpace(reply)
	if err == nil && reply == "" {
		err = &UpstreamError{Reason: "empty reply"}
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &TimeoutError{After: p.chatTimeout}
	}

	if err != nil {
		return p.settle(conv, gen, assistantMessage(Apology(lang)), StateFailed, err, lang, channel, start)
	}
	return p.settle(conv, gen, assistantMessage(reply), StateResolved, nil, lang, channel, start)
}

func (p *Pipeline) settle(conv *Conversation, gen uint64, msg Message, state State, cause error, lang preferences.Language, channel string, start time.Time) (Outcome, error) {
	kind := errorKind(cause)
	elapsed := time.Since(start)

	if !conv.finish(gen, msg, state) {
		metrics.TutorRequests.WithLabelValues(channel, "dropped").Inc()
		p.logger.Debug().
			Str("learner_id", conv.Learner().String()).
			Str("channel", channel).
			Str("kind", kind).
			Msg("reply dropped after clear")
		return Outcome{Accepted: true, Dropped: true, State: conv.State()}, nil
	}

	metrics.TutorRequests.WithLabelValues(channel, kind).Inc()
	metrics.TutorLatency.WithLabelValues(kind).Observe(elapsed.Seconds())

	if cause != nil {
		p.logger.Warn().Err(cause).
			Str("learner_id", conv.Learner().String()).
			Str("channel", channel).
			Str("kind", kind).
			Dur("elapsed", elapsed).
			Msg("tutor request failed")
	} else if p.speaker != nil {
		p.speaker.Speak(conv.Learner(), msg.Text, lang.SpeechTag())
	}
	p.notify(conv)

	return Outcome{Accepted: true, Reply: &msg, State: state}, cause
}

// Clear leaves a single greeting in lang. Any in-flight request is
// cancelled and its late reply is discarded.
func (p *Pipeline) Clear(conv *Conversation, lang preferences.Language) Transcript {
	conv.reset(Greeting(lang))
	p.notify(conv)
	return conv.Snapshot()
}

// ReportPermissionDenied surfaces a blocked microphone in the transcript.
func (p *Pipeline) ReportPermissionDenied(conv *Conversation, lang preferences.Language, reason string) error {
	err := &PermissionError{Reason: reason}
	p.logger.Info().Err(err).Str("learner_id", conv.Learner().String()).Msg("microphone unavailable")
	conv.note(PermissionNotice(lang))
	p.notify(conv)
	return err
}

func (p *Pipeline) notify(conv *Conversation) {
	if p.notifier != nil {
		p.notifier.TranscriptChanged(conv.Snapshot())
	}
}
