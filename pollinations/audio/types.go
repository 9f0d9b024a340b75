package audio

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// 参数边界，发请求前在客户端校验。
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0

	// MaxTextRunes 限制 GET 合成的文本长度。
	MaxTextRunes = 2000

	DefaultModel = "openai-audio"
	DefaultVoice = "alloy"
)

// Voice 描述一个可用声音。
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender,omitempty"` // male / female / neutral
	Description string `json:"description,omitempty"`
}

// Voices 是 openai-audio 模型的声音目录。
func Voices() []Voice {
	return []Voice{
		{ID: "alloy", Name: "Alloy", Gender: "neutral", Description: "Neutral, balanced voice"},
		{ID: "echo", Name: "Echo", Gender: "male", Description: "Warm, conversational male voice"},
		{ID: "fable", Name: "Fable", Gender: "neutral", Description: "Expressive, narrative voice"},
		{ID: "onyx", Name: "Onyx", Gender: "male", Description: "Deep, authoritative male voice"},
		{ID: "nova", Name: "Nova", Gender: "female", Description: "Friendly, upbeat female voice"},
		{ID: "shimmer", Name: "Shimmer", Gender: "female", Description: "Clear, professional female voice"},
		{ID: "coral", Name: "Coral", Gender: "female", Description: "Bright, expressive female voice"},
		{ID: "verse", Name: "Verse", Gender: "neutral", Description: "Versatile, mid-range voice"},
		{ID: "ballad", Name: "Ballad", Gender: "male", Description: "Soft, melodic male voice"},
		{ID: "ash", Name: "Ash", Gender: "male", Description: "Crisp, energetic male voice"},
		{ID: "sage", Name: "Sage", Gender: "female", Description: "Calm, measured female voice"},
		{ID: "amuch", Name: "Amuch", Gender: "neutral", Description: "Distinctive character voice"},
		{ID: "dan", Name: "Dan", Gender: "male", Description: "Plain, direct male voice"},
	}
}

// KnownVoice 报告 voice 是否在目录中。
func KnownVoice(id string) bool {
	for _, v := range Voices() {
		if v.ID == id {
			return true
		}
	}
	return false
}

// SpeechRequest 是语音合成的参数包。只有 Text 是必填项。
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
	Model string `json:"model,omitempty"`

	// Speed 取值 [0.25, 4.0]，0 表示使用服务端默认。
	Speed float64 `json:"speed,omitempty"`
}

// Validate 校验参数边界，返回首个违例的 ErrInvalidRequest。
func (r *SpeechRequest) Validate() error {
	if r == nil {
		return pollinations.InvalidRequest("speech request is nil", "")
	}
	if r.Text == "" {
		return pollinations.InvalidRequest(
			"text must not be empty",
			"pass the text to synthesize",
		)
	}
	if n := utf8.RuneCountInString(r.Text); n > MaxTextRunes {
		return pollinations.InvalidRequest(
			fmt.Sprintf("text is %d runes, limit is %d", n, MaxTextRunes),
			"split long passages into several synthesis calls",
		)
	}
	if r.Voice != "" && !KnownVoice(r.Voice) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("voice %q is not in the catalog", r.Voice),
			"use one of: "+strings.Join(voiceIDs(), ", "),
		)
	}
	if r.Speed != 0 && (r.Speed < MinSpeed || r.Speed > MaxSpeed) {
		return pollinations.InvalidRequest(
			fmt.Sprintf("speed %.2f out of range [%.2f, %.1f]", r.Speed, MinSpeed, MaxSpeed),
			"use a speed between 0.25 and 4.0",
		)
	}
	return nil
}

// TranscriptionRequest 是语音转写的参数包。
type TranscriptionRequest struct {
	// Audio 是原始音频字节，上传前自动 base64 编码。
	Audio []byte `json:"-"`

	// Format 是音频封装格式：mp3 或 wav。
	Format string `json:"format"`

	// Prompt 可选的引导语，默认为笼统的转写指令。
	Prompt string `json:"prompt,omitempty"`

	Model string `json:"model,omitempty"`
}

// transcriptionFormats 转写接口接受的音频格式。
var transcriptionFormats = []string{"mp3", "wav"}

// Validate 校验参数边界。
func (r *TranscriptionRequest) Validate() error {
	if r == nil {
		return pollinations.InvalidRequest("transcription request is nil", "")
	}
	if len(r.Audio) == 0 {
		return pollinations.InvalidRequest(
			"audio data must not be empty",
			"pass the raw audio bytes to transcribe",
		)
	}
	ok := false
	for _, f := range transcriptionFormats {
		if r.Format == f {
			ok = true
			break
		}
	}
	if !ok {
		return pollinations.InvalidRequest(
			fmt.Sprintf("audio format %q is not supported", r.Format),
			"use one of: "+strings.Join(transcriptionFormats, ", "),
		)
	}
	return nil
}

func voiceIDs() []string {
	voices := Voices()
	ids := make([]string, len(voices))
	for i, v := range voices {
		ids[i] = v.ID
	}
	return ids
}
