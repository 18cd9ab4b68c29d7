package logger

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	textInfoString    = "^time=[a-zA-Z0-9/:.\" -]{20,40} severity=INFO message=www.infoExample.com"
	textWarningString = "^time=[a-zA-Z0-9/:.\" -]{20,40} severity=WARNING message=www.warningExample.com"
	textErrorString   = "^time=[a-zA-Z0-9/:.\" -]{20,40} severity=ERROR message=www.errorExample.com"
	jsonInfoString    = `"severity":"INFO","message":"www.infoExample.com"`
	jsonErrorString   = `"severity":"ERROR","message":"www.errorExample.com"`
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func redirectLogsToGivenBuffer(buf *bytes.Buffer, format, severity string) {
	programLevel := new(slog.LevelVar)
	setLoggingLevel(severity, programLevel)
	defaultLoggerFactory.format = format
	defaultLoggerFactory.programLevel = programLevel
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(buf, programLevel, ""))
}

func (t *LoggerTest) TestTextFormatSeverityFiltering() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, "text", severityWarning)

	Infof("www.infoExample.com")
	t.Empty(buf.String())

	Warnf("www.warningExample.com")
	t.Regexp(regexp.MustCompile(textWarningString), buf.String())
	buf.Reset()

	Errorf("www.errorExample.com")
	t.Regexp(regexp.MustCompile(textErrorString), buf.String())
}

func (t *LoggerTest) TestTextFormatLevelInfoShowsInfo() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, "text", severityInfo)

	Infof("www.infoExample.com")
	t.Regexp(regexp.MustCompile(textInfoString), buf.String())
}

func (t *LoggerTest) TestJSONFormat() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, "json", severityInfo)

	Infof("www.infoExample.com")
	t.Contains(buf.String(), jsonInfoString)
	buf.Reset()

	Errorf("www.errorExample.com")
	t.Contains(buf.String(), jsonErrorString)
}

func (t *LoggerTest) TestOffSilencesEverything() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, "text", severityOff)

	Errorf("www.errorExample.com")

	t.Empty(buf.String())
}

func (t *LoggerTest) TestSetLoggingLevel() {
	testData := []struct {
		inputLevel    string
		expectedLevel slog.Level
	}{
		{severityTrace, LevelTrace},
		{severityDebug, LevelDebug},
		{severityInfo, LevelInfo},
		{severityWarning, LevelWarn},
		{severityError, LevelError},
		{severityOff, LevelOff},
	}

	for _, test := range testData {
		programLevel := new(slog.LevelVar)
		setLoggingLevel(test.inputLevel, programLevel)
		assert.Equal(t.T(), test.expectedLevel, programLevel.Level())
	}
}

func (t *LoggerTest) TestSetLogFormat() {
	defaultLoggerFactory.level = severityInfo
	SetLogFormat("json")
	assert.Equal(t.T(), "json", defaultLoggerFactory.format)

	SetLogFormat("text")
	assert.Equal(t.T(), "text", defaultLoggerFactory.format)
}
