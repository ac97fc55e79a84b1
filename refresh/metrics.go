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

package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshSuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kbridge",
		Subsystem: "refresh",
		Name:      "successes_total",
		Help:      "Total number of successful proactive token refreshes.",
	})
	refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kbridge",
		Subsystem: "refresh",
		Name:      "failures_total",
		Help:      "Total number of failed proactive token refreshes.",
	})
)
