package publish

import (
	"context"
	"fmt"
	"strconv"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"kcas/spotprice/internal/datastore"
	"kcas/spotprice/internal/sensor"
)

// Annotation keys written on the node
const (
	AnnotationPrefix = "spotprice/"

	AnnotationCurrentPrice  = AnnotationPrefix + "current-price"
	AnnotationUnit          = AnnotationPrefix + "unit"
	AnnotationPeriodStart   = AnnotationPrefix + "period-start"
	AnnotationPeriodType    = AnnotationPrefix + "period-type"
	AnnotationAverage       = AnnotationPrefix + "average"
	AnnotationPeak          = AnnotationPrefix + "peak"
	AnnotationOffPeak1      = AnnotationPrefix + "off-peak-1"
	AnnotationOffPeak2      = AnnotationPrefix + "off-peak-2"
	AnnotationLowPrice      = AnnotationPrefix + "low-price"
	AnnotationTomorrowValid = AnnotationPrefix + "tomorrow-valid"
	AnnotationLastUpdate    = AnnotationPrefix + "last-update"
	AnnotationRegion        = AnnotationPrefix + "region"
)

// AnnotationPublisher writes the headline values of each snapshot as
// annotations of a Kubernetes node, so schedulers and operators can shift
// load towards cheap periods.
type AnnotationPublisher struct {
	clientset kubernetes.Interface
	nodeName  string
}

// NewAnnotationPublisher creates a publisher for nodeName
func NewAnnotationPublisher(clientset kubernetes.Interface, nodeName string) *AnnotationPublisher {
	return &AnnotationPublisher{clientset: clientset, nodeName: nodeName}
}

// NewInClusterAnnotationPublisher creates a publisher using the pod's
// service account.
func NewInClusterAnnotationPublisher(nodeName string) (*AnnotationPublisher, error) {
	clientset, err := createKubernetesClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return NewAnnotationPublisher(clientset, nodeName), nil
}

// Publish updates the node annotations from snap. Absent values remove
// their annotation rather than leaving a stale price behind.
func (p *AnnotationPublisher) Publish(ctx context.Context, snap sensor.Snapshot) error {
	node, err := p.clientset.CoreV1().Nodes().Get(ctx, p.nodeName, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get node: %w", err)
	}

	if node.Annotations == nil {
		node.Annotations = make(map[string]string)
	}

	setPrice(node.Annotations, AnnotationCurrentPrice, snap.CurrentPrice)
	setPrice(node.Annotations, AnnotationAverage, snap.Aggregates.Average)
	setPrice(node.Annotations, AnnotationPeak, snap.Aggregates.Peak)
	setPrice(node.Annotations, AnnotationOffPeak1, snap.Aggregates.OffPeak1)
	setPrice(node.Annotations, AnnotationOffPeak2, snap.Aggregates.OffPeak2)

	node.Annotations[AnnotationUnit] = snap.UnitOfPrice
	node.Annotations[AnnotationRegion] = snap.Area
	node.Annotations[AnnotationPeriodType] = snap.PeriodType
	node.Annotations[AnnotationTomorrowValid] = strconv.FormatBool(snap.TomorrowValid)
	node.Annotations[AnnotationLastUpdate] = snap.UpdatedAt.Format(time.RFC3339)
	if !snap.PeriodStart.IsZero() {
		node.Annotations[AnnotationPeriodStart] = snap.PeriodStart.Format(time.RFC3339)
	}
	if snap.LowPrice != nil {
		node.Annotations[AnnotationLowPrice] = strconv.FormatBool(*snap.LowPrice)
	} else {
		delete(node.Annotations, AnnotationLowPrice)
	}

	if _, err := p.clientset.CoreV1().Nodes().Update(ctx, node, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}
	return nil
}

func setPrice(annotations map[string]string, key string, price datastore.Price) {
	if !price.Valid {
		delete(annotations, key)
		return
	}
	annotations[key] = strconv.FormatFloat(price.Value, 'f', -1, 64)
}

func createKubernetesClient() (*kubernetes.Clientset, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return clientset, nil
}
