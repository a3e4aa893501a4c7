// Package logger centralizes diagnostic output for the VNC encoding core,
// built on glog so verbosity is controllable at the process level (-v=1
// surfaces Debug/Debugf calls).
package logger

import (
	"fmt"

	"github.com/golang/glog"
)

func Debug(args ...interface{}) {
	if glog.V(1) {
		glog.InfoDepth(1, fmt.Sprint(args...))
	}
}

func Debugf(format string, args ...interface{}) {
	if glog.V(1) {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Info(args ...interface{})                 { glog.InfoDepth(1, fmt.Sprint(args...)) }
func Infof(format string, args ...interface{}) { glog.InfoDepth(1, fmt.Sprintf(format, args...)) }
func Warn(args ...interface{})                 { glog.WarningDepth(1, fmt.Sprint(args...)) }
func Warnf(format string, args ...interface{}) { glog.WarningDepth(1, fmt.Sprintf(format, args...)) }
func Error(args ...interface{})                { glog.ErrorDepth(1, fmt.Sprint(args...)) }
func Errorf(format string, args ...interface{}) { glog.ErrorDepth(1, fmt.Sprintf(format, args...)) }
