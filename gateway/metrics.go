/*
 * Copyright 2019 Kopano and its licensors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License, version 3,
 * as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	proxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kbridge",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Total number of dispatched proxy requests.",
	}, []string{"handler"})
	proxyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kbridge",
		Subsystem: "gateway",
		Name:      "backend_failures_total",
		Help:      "Total number of proxy requests which failed to reach the backend.",
	})
)
