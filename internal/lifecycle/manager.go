// Package lifecycle orchestrates the create → wait → locate → terminate
// flow for tag-scoped EC2 instances.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"spin/internal/ami"
	"spin/internal/config"
	"spin/internal/faults"
	"spin/internal/gateway"
	"spin/internal/logging"
)

const (
	groupTokenLength   = 8
	defaultPollEvery   = 5 * time.Second
	defaultPollTimeout = 90 * time.Second

	// DescribeInstanceStatus accepts at most 100 ids per call.
	statusBatchSize = 100
)

// UpResult is the outcome of one up invocation. Warning is set when the
// launch succeeded but the poll timed out before every instance reported
// running; the ids are still returned because the caller owns them.
type UpResult struct {
	Applied bool     `json:"applied"`
	Group   string   `json:"group"`
	IDs     []string `json:"ids,omitempty"`
	Count   int      `json:"count"`
	Type    string   `json:"type"`
	Region  string   `json:"region"`
	Warning string   `json:"warning,omitempty"`
}

// DownResult is the outcome of one down invocation. An empty Terminated
// list with Applied true means there was nothing to do, which is success.
type DownResult struct {
	Applied    bool     `json:"applied"`
	Terminated []string `json:"terminated"`
}

// InstanceSummary is the derived, never-persisted view of one instance,
// recomputed from a live query on every status or down call.
type InstanceSummary struct {
	ID            string            `json:"id"`
	State         string            `json:"state"`
	PublicIP      string            `json:"public_ip,omitempty"`
	UptimeMinutes int64             `json:"uptime_minutes"`
	Health        Health            `json:"health"`
	Tags          map[string]string `json:"tags"`
}

// Manager drives the instance lifecycle for one invocation's settings.
// Gateways are only consulted on live paths.
type Manager struct {
	settings *config.Settings
	gateways gateway.Factory

	PollInterval time.Duration
	PollTimeout  time.Duration

	now func() time.Time
}

// NewManager returns a manager with the default poll bounds.
func NewManager(s *config.Settings, f gateway.Factory) *Manager {
	return &Manager{
		settings:     s,
		gateways:     f,
		PollInterval: defaultPollEvery,
		PollTimeout:  defaultPollTimeout,
		now:          time.Now,
	}
}

// NewGroupToken generates the 8-character lowercase-alphanumeric correlation
// token tying one up invocation's instances together.
func NewGroupToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:groupTokenLength]
}

func (m *Manager) live(apply bool) bool {
	return apply && m.settings.Live
}

func (m *Manager) tagSet(group string) []ec2types.Tag {
	tags := make([]ec2types.Tag, 0, 4)
	for k, v := range m.settings.BaseTags() {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	tags = append(tags, ec2types.Tag{Key: aws.String("SpinGroup"), Value: aws.String(group)})
	return tags
}

var errPollTimeout = errors.New("poll timed out")

// Up launches count instances under a group token. Without apply and the
// live interlock it returns an exact preview and makes no remote calls.
func (m *Manager) Up(ctx context.Context, count int, instanceType, group string, apply bool) (*UpResult, error) {
	if group == "" {
		group = NewGroupToken()
	}
	itype := instanceType
	if itype == "" {
		itype = m.settings.DefaultType
	}

	res := &UpResult{
		Applied: false,
		Group:   group,
		Count:   count,
		Type:    itype,
		Region:  m.settings.Region,
	}
	if !m.live(apply) {
		return res, nil
	}

	store, err := m.gateways.ParameterStore(ctx)
	if err != nil {
		return nil, err
	}
	imageID, err := ami.Resolve(ctx, store, m.settings.Region)
	if err != nil {
		return nil, err
	}

	compute, err := m.gateways.Compute(ctx)
	if err != nil {
		return nil, err
	}

	tags := m.tagSet(group)
	out, err := compute.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:      aws.String(imageID),
		InstanceType: ec2types.InstanceType(itype),
		MinCount:     aws.Int32(int32(count)),
		MaxCount:     aws.Int32(int32(count)),
		TagSpecifications: []ec2types.TagSpecification{
			{ResourceType: ec2types.ResourceTypeInstance, Tags: tags},
			{ResourceType: ec2types.ResourceTypeVolume, Tags: tags},
		},
	})
	if err != nil {
		return nil, faults.Translate("launch instances", m.settings.Region, err)
	}

	ids := make([]string, 0, len(out.Instances))
	for _, inst := range out.Instances {
		ids = append(ids, aws.ToString(inst.InstanceId))
	}
	logging.Logger().Info("launched instances",
		zap.Strings("ids", ids),
		zap.String("group", group),
		zap.String("type", itype))

	res.Applied = true
	res.IDs = ids
	res.Count = len(ids)

	if err := m.waitRunning(ctx, compute, ids); err != nil {
		if errors.Is(err, errPollTimeout) {
			res.Warning = fmt.Sprintf(
				"timed out after %s waiting for %d instance(s) to reach running state",
				m.PollTimeout, len(ids))
			return res, nil
		}
		return nil, err
	}
	return res, nil
}

// waitRunning polls the created ids until every one reports running or
// terminated, or the hard timeout elapses. A terminated instance is a boot
// that already finished failing; it must not hold the wait open. Any query
// error aborts the poll immediately.
func (m *Manager) waitRunning(ctx context.Context, compute gateway.Compute, ids []string) error {
	deadline := m.now().Add(m.PollTimeout)
	for {
		out, err := compute.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			InstanceIds: ids,
		})
		if err != nil {
			return faults.Translate("poll instance state", m.settings.Region, err)
		}

		settled := 0
		for _, res := range out.Reservations {
			for _, inst := range res.Instances {
				if inst.State == nil {
					continue
				}
				switch inst.State.Name {
				case ec2types.InstanceStateNameRunning, ec2types.InstanceStateNameTerminated:
					settled++
				}
			}
		}
		if settled >= len(ids) {
			return nil
		}
		if m.now().After(deadline) {
			return errPollTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.PollInterval):
		}
	}
}

func (m *Manager) filters(group string) []ec2types.Filter {
	filters := []ec2types.Filter{
		{Name: aws.String("tag:Project"), Values: []string{config.Project}},
		{Name: aws.String("tag:ManagedBy"), Values: []string{config.ManagedBy}},
		{Name: aws.String("tag:Owner"), Values: []string{m.settings.Owner}},
	}
	if group != "" {
		filters = append(filters, ec2types.Filter{
			Name: aws.String("tag:SpinGroup"), Values: []string{group},
		})
	}
	return filters
}

// locate lists every owned instance via the tag filters, following the
// pagination token to the end.
func (m *Manager) locate(ctx context.Context, compute gateway.Compute, group string) ([]ec2types.Instance, error) {
	var instances []ec2types.Instance
	var token *string
	for {
		out, err := compute.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			Filters:    m.filters(group),
			MaxResults: aws.Int32(1000),
			NextToken:  token,
		})
		if err != nil {
			return nil, faults.Translate("list instances", m.settings.Region, err)
		}
		for _, res := range out.Reservations {
			instances = append(instances, res.Instances...)
		}
		token = out.NextToken
		if token == nil {
			break
		}
	}
	return instances, nil
}

// fetchHealth runs the batched status query and maps instance id to the
// classified health. The error return lets Status degrade instead of fail.
func (m *Manager) fetchHealth(ctx context.Context, compute gateway.Compute, instances []ec2types.Instance) (map[string]Health, error) {
	ids := make([]string, 0, len(instances))
	states := make(map[string]ec2types.InstanceStateName, len(instances))
	for _, inst := range instances {
		id := aws.ToString(inst.InstanceId)
		ids = append(ids, id)
		if inst.State != nil {
			states[id] = inst.State.Name
		}
	}

	type pair struct {
		sys, inst ec2types.SummaryStatus
	}
	found := make(map[string]pair, len(ids))
	for start := 0; start < len(ids); start += statusBatchSize {
		end := start + statusBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		out, err := compute.DescribeInstanceStatus(ctx, &ec2.DescribeInstanceStatusInput{
			InstanceIds:         ids[start:end],
			IncludeAllInstances: aws.Bool(true),
		})
		if err != nil {
			return nil, err
		}
		for _, st := range out.InstanceStatuses {
			p := pair{}
			if st.SystemStatus != nil {
				p.sys = st.SystemStatus.Status
			}
			if st.InstanceStatus != nil {
				p.inst = st.InstanceStatus.Status
			}
			found[aws.ToString(st.InstanceId)] = p
		}
	}

	health := make(map[string]Health, len(ids))
	for _, id := range ids {
		p, ok := found[id]
		health[id] = classifyHealth(states[id], p.sys, p.inst, ok)
	}
	return health, nil
}

func (m *Manager) summarize(instances []ec2types.Instance, health map[string]Health) []InstanceSummary {
	out := make([]InstanceSummary, 0, len(instances))
	for _, inst := range instances {
		id := aws.ToString(inst.InstanceId)

		state := "unknown"
		if inst.State != nil {
			state = string(inst.State.Name)
		}

		var uptime int64
		if inst.LaunchTime != nil {
			if mins := int64(m.now().Sub(*inst.LaunchTime).Minutes()); mins > 0 {
				uptime = mins
			}
		}

		tags := make(map[string]string, len(inst.Tags))
		for _, t := range inst.Tags {
			tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
		}

		h, ok := health[id]
		if !ok {
			h = HealthUnknown
		}

		out = append(out, InstanceSummary{
			ID:            id,
			State:         state,
			PublicIP:      aws.ToString(inst.PublicIpAddress),
			UptimeMinutes: uptime,
			Health:        h,
			Tags:          tags,
		})
	}
	return out
}

// Status returns summaries of the owner's instances, optionally scoped to a
// group. Under dry-run or with the live interlock off it returns an empty
// list without touching AWS. A failed health query degrades every instance
// to UNKNOWN rather than failing the call.
func (m *Manager) Status(ctx context.Context, group string) ([]InstanceSummary, error) {
	if m.settings.DryRun || !m.settings.Live {
		return []InstanceSummary{}, nil
	}

	compute, err := m.gateways.Compute(ctx)
	if err != nil {
		return nil, err
	}
	instances, err := m.locate(ctx, compute, group)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return []InstanceSummary{}, nil
	}

	health, err := m.fetchHealth(ctx, compute, instances)
	if err != nil {
		logging.Logger().Warn("health query failed, reporting UNKNOWN",
			zap.Error(err))
		health = nil
	}
	return m.summarize(instances, health), nil
}

// Down terminates a group's instances. Refusing to run without a group is a
// policy decision checked before anything else, even the preview: an absent
// group must never silently mean "all instances".
func (m *Manager) Down(ctx context.Context, group string, apply bool) (*DownResult, error) {
	if group == "" && !m.settings.AllowGlobalDown {
		return nil, &faults.PolicyError{
			Reason: "Refusing to down without --group; set SPIN_ALLOW_GLOBAL_DOWN=1 to override (dangerous).",
		}
	}

	if !m.live(apply) {
		return &DownResult{Applied: false, Terminated: []string{}}, nil
	}

	compute, err := m.gateways.Compute(ctx)
	if err != nil {
		return nil, err
	}
	instances, err := m.locate(ctx, compute, group)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, aws.ToString(inst.InstanceId))
	}
	if len(ids) == 0 {
		return &DownResult{Applied: true, Terminated: []string{}}, nil
	}

	if _, err := compute.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: ids,
	}); err != nil {
		return nil, faults.Translate("terminate instances", m.settings.Region, err)
	}
	logging.Logger().Info("terminated instances",
		zap.Strings("ids", ids),
		zap.String("group", group))

	return &DownResult{Applied: true, Terminated: ids}, nil
}
