package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"spin/internal/config"
	"spin/internal/gateway"
)

func TestLifecycleSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Lifecycle Suite")
}

// fakeBackend simulates the EC2 control plane and the SSM parameter store
// with enough fidelity for the up → status → down round trip: launched
// instances become visible to tag-filtered describes, and termination
// flips their state without deleting them.
type fakeBackend struct {
	mu        sync.Mutex
	seq       int
	instances map[string]*fakeInstance
}

type fakeInstance struct {
	id     string
	state  ec2types.InstanceStateName
	tags   map[string]string
	launch time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{instances: make(map[string]*fakeInstance)}
}

func (b *fakeBackend) RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tags := make(map[string]string)
	for _, spec := range in.TagSpecifications {
		if spec.ResourceType != ec2types.ResourceTypeInstance {
			continue
		}
		for _, t := range spec.Tags {
			tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
		}
	}

	count := int(aws.ToInt32(in.MaxCount))
	out := &ec2.RunInstancesOutput{}
	for i := 0; i < count; i++ {
		b.seq++
		inst := &fakeInstance{
			id:     fmt.Sprintf("i-%08d", b.seq),
			state:  ec2types.InstanceStateNameRunning,
			tags:   tags,
			launch: time.Now(),
		}
		b.instances[inst.id] = inst
		out.Instances = append(out.Instances, b.render(inst))
	}
	return out, nil
}

func (b *fakeBackend) render(inst *fakeInstance) ec2types.Instance {
	tags := make([]ec2types.Tag, 0, len(inst.tags))
	for k, v := range inst.tags {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return ec2types.Instance{
		InstanceId: aws.String(inst.id),
		State:      &ec2types.InstanceState{Name: inst.state},
		LaunchTime: aws.Time(inst.launch),
		Tags:       tags,
	}
}

func (b *fakeBackend) matches(inst *fakeInstance, in *ec2.DescribeInstancesInput) bool {
	for _, id := range in.InstanceIds {
		if id == inst.id {
			return true
		}
	}
	if len(in.InstanceIds) > 0 {
		return false
	}
	for _, f := range in.Filters {
		name := aws.ToString(f.Name)
		if !strings.HasPrefix(name, "tag:") {
			return false
		}
		got, ok := inst.tags[strings.TrimPrefix(name, "tag:")]
		if !ok {
			return false
		}
		found := false
		for _, v := range f.Values {
			if v == got {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (b *fakeBackend) DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var instances []ec2types.Instance
	for _, inst := range b.instances {
		if b.matches(inst, in) {
			instances = append(instances, b.render(inst))
		}
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: instances}},
	}, nil
}

func (b *fakeBackend) DescribeInstanceStatus(ctx context.Context, in *ec2.DescribeInstanceStatusInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceStatusOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := &ec2.DescribeInstanceStatusOutput{}
	for _, id := range in.InstanceIds {
		inst, ok := b.instances[id]
		if !ok {
			continue
		}
		status := ec2types.SummaryStatusOk
		if inst.state != ec2types.InstanceStateNameRunning {
			status = ec2types.SummaryStatusNotApplicable
		}
		out.InstanceStatuses = append(out.InstanceStatuses, ec2types.InstanceStatus{
			InstanceId:     aws.String(id),
			SystemStatus:   &ec2types.InstanceStatusSummary{Status: status},
			InstanceStatus: &ec2types.InstanceStatusSummary{Status: status},
		})
	}
	return out, nil
}

func (b *fakeBackend) TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range in.InstanceIds {
		if inst, ok := b.instances[id]; ok {
			inst.state = ec2types.InstanceStateNameTerminated
		}
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

func (b *fakeBackend) GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String("ami-0123456789abcdef0")},
	}, nil
}

type backendFactory struct {
	backend *fakeBackend
}

func (f *backendFactory) Compute(ctx context.Context) (gateway.Compute, error) {
	return f.backend, nil
}

func (f *backendFactory) ParameterStore(ctx context.Context) (gateway.ParameterStore, error) {
	return f.backend, nil
}

var _ = Describe("Instance lifecycle round trip", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		mgr     *Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = newFakeBackend()
		settings := &config.Settings{
			Region:      "eu-north-1",
			Owner:       "dev@example.com",
			DefaultType: "t3.micro",
			Live:        true,
		}
		mgr = NewManager(settings, &backendFactory{backend: backend})
		mgr.PollInterval = time.Millisecond
		mgr.PollTimeout = 100 * time.Millisecond
	})

	It("creates, finds and terminates exactly the group's instances", func() {
		up, err := mgr.Up(ctx, 2, "", "", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(up.Applied).To(BeTrue())
		Expect(up.Warning).To(BeEmpty())
		Expect(up.IDs).To(HaveLen(2))
		Expect(up.Group).To(HaveLen(8))

		By("launching an unrelated group that must stay untouched")
		other, err := mgr.Up(ctx, 1, "", "", true)
		Expect(err).NotTo(HaveOccurred())

		By("finding the group's instances via status")
		summaries, err := mgr.Status(ctx, up.Group)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(2))
		ids := make([]string, 0, 2)
		for _, s := range summaries {
			Expect(s.State).To(Equal("running"))
			Expect(s.Health).To(Equal(HealthOK))
			Expect(s.Tags["SpinGroup"]).To(Equal(up.Group))
			ids = append(ids, s.ID)
		}
		Expect(ids).To(ConsistOf(up.IDs))

		By("terminating exactly those instances")
		down, err := mgr.Down(ctx, up.Group, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(down.Applied).To(BeTrue())
		Expect(down.Terminated).To(ConsistOf(up.IDs))

		By("verifying none of the group is still running")
		after, err := mgr.Status(ctx, up.Group)
		Expect(err).NotTo(HaveOccurred())
		for _, s := range after {
			Expect(s.State).NotTo(Equal("running"))
		}

		By("leaving the unrelated group running")
		otherSummaries, err := mgr.Status(ctx, other.Group)
		Expect(err).NotTo(HaveOccurred())
		Expect(otherSummaries).To(HaveLen(1))
		Expect(otherSummaries[0].State).To(Equal("running"))

		By("treating a second down of the drained group as success")
		again, err := mgr.Down(ctx, up.Group, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Applied).To(BeTrue())
		// Terminated instances still match the tag query; terminating them
		// again is idempotent at the backend.
		Expect(again.Terminated).To(ConsistOf(up.IDs))
	})
})
