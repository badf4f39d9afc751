package logger

import (
	"strings"

	"github.com/nulzo/canteen-api/internal/cli"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var pool = buffer.NewPool()

// coloredConsoleEncoder highlights the JSON field blob zap's console encoder
// appends after the message.
type coloredConsoleEncoder struct {
	zapcore.Encoder
}

func NewColoredConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &coloredConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
	}
}

func (c *coloredConsoleEncoder) Clone() zapcore.Encoder {
	return &coloredConsoleEncoder{
		Encoder: c.Encoder.Clone(),
	}
}

func (c *coloredConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}

	// "TIME\tLEVEL\tCALLER\tMSG\t{fields}"
	logLine := buf.String()
	splitIdx := strings.Index(logLine, "\t{")
	if splitIdx != -1 {
		metaPart := logLine[:splitIdx+1] // Include the tab
		jsonPart := logLine[splitIdx+1:] // The JSON blob (including newline)

		prettyJSON := cli.HighlightJSON(jsonPart)

		newBuf := pool.Get()
		newBuf.AppendString(metaPart)
		newBuf.AppendString(prettyJSON)

		buf.Free()

		return newBuf, nil
	}

	return buf, nil
}
