/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package log

import (
	"testing"

	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	assert.Equal(t, "Auth", Logger().Data[core.LogFieldModule])
}

func TestGuardLogger(t *testing.T) {
	logger := GuardLogger("dpop")

	assert.Equal(t, "Auth", logger.Data[core.LogFieldModule])
	assert.Equal(t, "dpop", logger.Data["guard"])
	assert.NotContains(t, Logger().Data, "guard")
}
