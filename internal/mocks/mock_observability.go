// Package mocks provides mock implementations for testing
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
)

// MockLogger is a mock implementation of Logger interface
type MockLogger struct {
	mock.Mock
}

// NewLooseLogger returns a logger that accepts any call
func NewLooseLogger() *MockLogger {
	m := new(MockLogger)
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Info", mock.Anything, mock.Anything).Maybe()
	m.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.On("Error", mock.Anything, mock.Anything).Maybe()
	m.On("WithFields", mock.Anything).Return(nil).Maybe()
	return m
}

// Debug mocks the Debug method
func (m *MockLogger) Debug(msg string, fields ...interface{}) {
	m.Called(msg, fields)
}

// Info mocks the Info method
func (m *MockLogger) Info(msg string, fields ...interface{}) {
	m.Called(msg, fields)
}

// Warn mocks the Warn method
func (m *MockLogger) Warn(msg string, fields ...interface{}) {
	m.Called(msg, fields)
}

// Error mocks the Error method
func (m *MockLogger) Error(msg string, fields ...interface{}) {
	m.Called(msg, fields)
}

// WithFields mocks the WithFields method
func (m *MockLogger) WithFields(fields map[string]interface{}) ports.Logger {
	args := m.Called(fields)
	if logger, ok := args.Get(0).(ports.Logger); ok {
		return logger
	}
	return m
}

// MockMetrics is a mock implementation of Metrics interface
type MockMetrics struct {
	mock.Mock
}

// NewLooseMetrics returns metrics that accept any call
func NewLooseMetrics() *MockMetrics {
	m := new(MockMetrics)
	m.On("IncrementCounter", mock.Anything, mock.Anything).Maybe()
	m.On("RecordHistogram", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordGauge", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("WithTags", mock.Anything).Return(nil).Maybe()
	return m
}

// IncrementCounter mocks the IncrementCounter method
func (m *MockMetrics) IncrementCounter(name string, tags map[string]string) {
	m.Called(name, tags)
}

// RecordHistogram mocks the RecordHistogram method
func (m *MockMetrics) RecordHistogram(name string, value float64, tags map[string]string) {
	m.Called(name, value, tags)
}

// RecordGauge mocks the RecordGauge method
func (m *MockMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	m.Called(name, value, tags)
}

// WithTags mocks the WithTags method
func (m *MockMetrics) WithTags(tags map[string]string) ports.Metrics {
	args := m.Called(tags)
	if metrics, ok := args.Get(0).(ports.Metrics); ok {
		return metrics
	}
	return m
}
