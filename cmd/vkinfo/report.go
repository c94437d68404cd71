package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vkwizard/vkwizard/device"
	"github.com/vkwizard/vkwizard/gpu"
	"github.com/vkwizard/vkwizard/instance"
)

type report struct {
	Instance instanceReport `json:"instance"`
	Devices  []deviceReport `json:"devices"`
}

type instanceReport struct {
	Extensions []string `json:"extensions"`
	Layers     []string `json:"layers"`
}

type deviceReport struct {
	Index               int               `json:"index"`
	Name                string            `json:"name,omitempty"`
	Type                gpu.DeviceType    `json:"type"`
	VendorID            uint32            `json:"vendorID"`
	DeviceID            uint32            `json:"deviceID"`
	APIVersion          string            `json:"apiVersion,omitempty"`
	DriverVersion       string            `json:"driverVersion,omitempty"`
	PipelineCacheUUID   uuid.UUID         `json:"pipelineCacheUUID"`
	MaxImageDimension2D uint32            `json:"maxImageDimension2D"`
	QueueFamilies       []gpu.QueueFamily `json:"queueFamilies,omitempty"`
	Extensions          []string          `json:"extensions,omitempty"`
	Features            gpu.FeatureSet    `json:"features"`

	Suitable bool     `json:"suitable"`
	Score    uint64   `json:"score,omitempty"`
	Unmet    []string `json:"unmet,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// buildReport lists what the loader offers, then describes every device of
// inst concurrently and checks each against req. A device that cannot be
// queried is reported with its error.
func buildReport(ctx context.Context, lib *instance.Library, inst gpu.Instance, req device.Requirement) (report, error) {
	out := report{Instance: instanceReport{
		Extensions: lib.Extensions(),
		Layers:     lib.Layers(),
	}}

	devices, err := inst.PhysicalDevices()
	if err != nil {
		return out, errors.Wrap(err, "enumerate physical devices")
	}

	out.Devices = make([]deviceReport, len(devices))
	group, ctx := errgroup.WithContext(ctx)
	for i, pd := range devices {
		i, pd := i, pd
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out.Devices[i] = describe(i, pd, req)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func describe(index int, pd gpu.PhysicalDevice, req device.Requirement) deviceReport {
	report := deviceReport{Index: index}
	d, err := device.Describe(pd)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Name = d.Name
	report.Type = d.Type
	report.VendorID = d.VendorID
	report.DeviceID = d.DeviceID
	report.APIVersion = d.APIVersion.String()
	report.DriverVersion = d.DriverVersion.String()
	report.PipelineCacheUUID = d.PipelineCacheUUID
	report.MaxImageDimension2D = d.Limits.MaxImageDimension2D
	report.QueueFamilies = d.QueueFamilies
	report.Extensions = d.Extensions
	report.Features = d.Features

	for _, unmet := range req.Check(d) {
		report.Unmet = append(report.Unmet, unmet.Error())
	}
	report.Suitable = len(report.Unmet) == 0
	if report.Suitable {
		report.Score = device.Score(d)
	}
	return report
}
