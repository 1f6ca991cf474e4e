package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Log levels. A message is printed when the logger level is >= the message level.
const (
	LevelQuiet uint8 = iota
	LevelInfo
	LevelDebug
	LevelDev
)

var DiscardLog = &Log{
	logLevel: LevelQuiet,
	stdout:   io.Discard,
	stderr:   io.Discard,
}

func New() *Log {
	return &Log{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logLevel: LevelInfo,
		color:    true,
	}
}

type Log struct {
	logLevel uint8
	stdout   io.Writer
	stderr   io.Writer
	color    bool
	sync.RWMutex
}

func (l *Log) SetLogLevel(lvl uint8) {
	l.Lock()
	defer l.Unlock()

	l.logLevel = lvl
}
func (l *Log) GetLogLevel() uint8 {
	l.RLock()
	defer l.RUnlock()

	return l.logLevel
}
func (l *Log) SetStdout(stdout io.Writer) {
	l.Lock()
	defer l.Unlock()

	l.stdout = stdout
}
func (l *Log) SetStderr(stderr io.Writer) {
	l.Lock()
	defer l.Unlock()

	l.stderr = stderr
}

// SetColor enables or disables ANSI colors, useful when the output is not a terminal
func (l *Log) SetColor(c bool) {
	l.Lock()
	defer l.Unlock()

	l.color = c
}

var Reset = "\033[0m"
var Red = "\033[31m"
var Green = "\033[32m"
var Yellow = "\033[33m"
var Blue = "\033[34m"
var Cyan = "\033[36m"
var Gray = "\033[37m"
var Bold = "\033[1m"

func getLogPrefix() string {
	// skip getLogPrefix, write and the exported logging method
	_, file, line, _ := runtime.Caller(3)
	fileSpl := strings.Split(file, "/")
	debugInfos := strings.Split(fileSpl[len(fileSpl)-1], ".")[0] + ":" + strconv.FormatInt(int64(line), 10)
	for len(debugInfos) < 18 {
		debugInfos = debugInfos + " "
	}

	return getTime() + debugInfos
}
func getTime() string {
	t := time.Now()
	s := fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000/1000)
	return s + " "
}

func (l *Log) write(lvl uint8, toStderr bool, color, tag, msg string) {
	l.Lock()
	defer l.Unlock()
	if l.logLevel < lvl {
		return
	}

	out := l.stdout
	if toStderr {
		out = l.stderr
	}
	if !l.color {
		color = ""
	}

	line := getLogPrefix() + color + tag + " " + msg
	if color != "" {
		line += Reset
	}
	out.Write([]byte(line))
}

func (l *Log) Info(a ...any) {
	l.write(LevelInfo, false, "", "I", fmt.Sprintln(a...))
}
func (l *Log) Infof(format string, a ...any) {
	l.write(LevelInfo, false, "", "I", fmt.Sprintf(format+"\n", a...))
}

func (l *Log) Warn(a ...any) {
	l.write(LevelInfo, false, Yellow, "W", fmt.Sprintln(a...))
}
func (l *Log) Warnf(format string, a ...any) {
	l.write(LevelInfo, false, Yellow, "W", fmt.Sprintf(format+"\n", a...))
}

func (l *Log) Err(a ...any) {
	l.write(LevelInfo, false, Red, "E", fmt.Sprintln(a...))
}
func (l *Log) Errf(format string, a ...any) {
	l.write(LevelInfo, true, Red, "E", fmt.Sprintf(format+"\n", a...))
}

func (l *Log) Debug(a ...any) {
	l.write(LevelDebug, false, Cyan, "D", fmt.Sprintln(a...))
}
func (l *Log) Debugf(format string, a ...any) {
	l.write(LevelDebug, false, Cyan, "D", fmt.Sprintf(format+"\n", a...))
}

func (l *Log) Dev(a ...any) {
	l.write(LevelDev, false, Cyan, "d", fmt.Sprintln(a...))
}
func (l *Log) Devf(format string, a ...any) {
	l.write(LevelDev, false, Cyan, "d", fmt.Sprintf(format+"\n", a...))
}

// Fatal prints the message regardless of the log level and panics
func (l *Log) Fatal(a ...any) {
	l.write(LevelQuiet, true, Red, "F", fmt.Sprintln(a...))
	panic(fmt.Sprintln(a...))
}
