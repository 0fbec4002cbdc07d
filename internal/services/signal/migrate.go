package signal

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	"msgcore/internal/domain"
	"msgcore/internal/jid"
)

// MigrateSession copies the sessions of every known device of fromJID (a PN)
// to the same devices of toJID (a LID). The PN sessions stay in place.
//
// Devices come from the stored device list plus fromJID's own device.
// Devices without a PN session, with an existing LID session, or migrated
// before are counted as skipped. Any other shape of from/to is a no-op.
// A failed write is returned.
func (r *Repository) MigrateSession(ctx context.Context, fromJID, toJID string) (domain.MigrationResult, error) {
	if !jid.IsAnyLID(toJID) {
		return domain.MigrationResult{}, nil
	}
	if !jid.IsAnyPN(fromJID) {
		return domain.MigrationResult{Total: 1, Skipped: 1}, nil
	}
	from, err := r.AddressOf(fromJID)
	if err != nil {
		return domain.MigrationResult{}, err
	}
	to, err := r.AddressOf(toJID)
	if err != nil {
		return domain.MigrationResult{}, err
	}

	devices, err := r.deviceList(ctx, from.Name)
	if err != nil {
		return domain.MigrationResult{}, err
	}
	own := strconv.FormatUint(uint64(from.DeviceID), 10)
	if !slices.Contains(devices, own) {
		devices = append(devices, own)
	}

	var res domain.MigrationResult
	for _, d := range devices {
		dev, err := strconv.ParseUint(d, 10, 32)
		if err != nil {
			r.log.WithField("device", d).Warn("signal: bad device id in device list")
			continue
		}
		res.Total++
		src := domain.ProtocolAddress{Name: from.Name, DeviceID: uint32(dev)}
		dst := domain.ProtocolAddress{Name: to.Name, DeviceID: uint32(dev)}
		copied, err := r.copySession(ctx, src, dst)
		if err != nil {
			r.metrics.ObserveMigration("error")
			return res, err
		}
		if copied {
			res.Migrated++
		} else {
			res.Skipped++
		}
	}

	switch {
	case res.Migrated > 0:
		r.metrics.ObserveMigration("migrated")
	case res.Skipped > 0:
		r.metrics.ObserveMigration("skipped")
	default:
		r.metrics.ObserveMigration("noop")
	}
	r.log.WithFields(logrus.Fields{
		"from":     fromJID,
		"to":       toJID,
		"migrated": res.Migrated,
		"skipped":  res.Skipped,
		"total":    res.Total,
	}).Debug("signal: session migration")
	return res, nil
}

// copySession copies src's record to dst unless dst already has one.
func (r *Repository) copySession(ctx context.Context, src, dst domain.ProtocolAddress) (bool, error) {
	if r.migrated.Contains(src.String()) {
		return false, nil
	}
	unlock := r.locks.Lock(dst.String())
	defer unlock()

	got, err := r.keys.Get(ctx, domain.KindSession, []string{src.String(), dst.String()})
	if err != nil {
		return false, fmt.Errorf("migrate %s: %w", src, err)
	}
	raw, ok := got[src.String()]
	if !ok {
		return false, nil
	}
	if _, exists := got[dst.String()]; exists {
		r.migrated.Add(src.String(), struct{}{})
		return false, nil
	}
	if err := r.keys.Set(ctx, domain.KeyData{domain.KindSession: {dst.String(): raw}}); err != nil {
		return false, fmt.Errorf("migrate %s -> %s: %w", src, dst, err)
	}
	r.migrated.Add(src.String(), struct{}{})
	return true, nil
}
