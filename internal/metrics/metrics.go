/*
 * MIT License
 *
 * Copyright (c) 2024 MSL-Network Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package metrics registers the prometheus/client_golang collectors the
// Manager exposes (spec SPEC_FULL §4.3/§6), grounded in the teacher's
// prometheus package convention of registering named collectors against a
// shared registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set bundles every collector the Manager updates. Construct once with
// New and register on a *prometheus.Registry of the caller's choosing.
type Set struct {
	SessionsTotal       prometheus.Counter
	SessionsActive      prometheus.Gauge
	LinkedClients       *prometheus.GaugeVec
	LockContentionTotal prometheus.Counter
	PendingRequests     prometheus.Gauge
	NotificationsTotal  prometheus.Counter
	RequestsTotal       *prometheus.CounterVec
}

// New builds an unregistered Set.
func New() *Set {
	return &Set{
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msl_network_sessions_total",
			Help: "Total peer sessions accepted since start.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "msl_network_sessions_active",
			Help: "Peer sessions currently in state ready or later.",
		}),
		LinkedClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "msl_network_linked_clients",
			Help: "Clients currently linked to a service, by service name.",
		}, []string{"service"}),
		LockContentionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msl_network_lock_contention_total",
			Help: "Lock requests rejected due to an existing exclusive/shared lock.",
		}),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "msl_network_pending_requests",
			Help: "Requests currently awaiting a Service reply.",
		}),
		NotificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msl_network_notifications_total",
			Help: "Notification broadcasts fanned out to Clients.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msl_network_requests_total",
			Help: "Client requests routed, by outcome.",
		}, []string{"outcome"}),
	}
}

// Register adds every collector in s to reg.
func (s *Set) Register(reg *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		s.SessionsTotal,
		s.SessionsActive,
		s.LinkedClients,
		s.LockContentionTotal,
		s.PendingRequests,
		s.NotificationsTotal,
		s.RequestsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
